package assets

import "testing"

func TestNormalizeRef(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{
			name: "strips resize segment and collapses revision",
			ref:  "https://static.example.com/images/a/ab/Hero.png/revision/latest/scale-to-width-down/300?cb=12345",
			want: "https://static.example.com/images/a/ab/Hero.png/revision/latest?cb=12345",
		},
		{
			name: "plain revision suffix keeps cache buster",
			ref:  "https://static.example.com/Hero.jpg/revision/latest?cb=9&path-prefix=en",
			want: "https://static.example.com/Hero.jpg/revision/latest?cb=9",
		},
		{
			name: "protocol-relative upgraded",
			ref:  "//static.example.com/x.png",
			want: "https://static.example.com/x.png",
		},
		{
			name: "query noise dropped when no cache buster",
			ref:  "https://static.example.com/x.webp?width=64",
			want: "https://static.example.com/x.webp",
		},
		{
			name:    "relative reference rejected",
			ref:     "images/x.png",
			wantErr: true,
		},
		{
			name:    "non-image extension rejected",
			ref:     "https://static.example.com/readme.txt",
			wantErr: true,
		},
		{
			name:    "missing extension rejected",
			ref:     "https://static.example.com/image",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeRef(%q) = %q, want error", tt.ref, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeRef(%q): %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeRef(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestExtOf(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"https://x.example/a.png", ".png"},
		{"https://x.example/a.JPG", ".jpg"},
		{"https://x.example/a.webp/revision/latest?cb=1", ".webp"},
		{"https://x.example/mystery", ".png"},
	}
	for _, tt := range tests {
		if got := ExtOf(tt.ref); got != tt.want {
			t.Errorf("ExtOf(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestSanitizeIdentity(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hero A", "Hero_A"},
		{"Mr. O'Neil/Jr", "Mr._O_Neil_Jr"},
		{"  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		if got := SanitizeIdentity(tt.in); got != tt.want {
			t.Errorf("SanitizeIdentity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
