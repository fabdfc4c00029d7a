package locator

import (
	"slices"
	"testing"
)

func TestCandidates_OrderAndDedup(t *testing.T) {
	got := Candidates("Test-Character!", "")

	verbatim := slices.Index(got, "Test-Character!")
	stripped := slices.Index(got, "TestCharacter")
	if verbatim != 0 {
		t.Errorf("verbatim slug should be first, got list %v", got)
	}
	if stripped < 0 {
		t.Fatalf("alphanumeric-stripped variant missing from %v", got)
	}
	if stripped <= verbatim {
		t.Errorf("stripped variant must come after verbatim: %v", got)
	}

	// No duplicates.
	seen := make(map[string]int)
	for _, c := range got {
		seen[c]++
		if seen[c] > 1 {
			t.Errorf("duplicate candidate %q in %v", c, got)
		}
	}

	// Generation is deterministic.
	again := Candidates("Test-Character!", "")
	if !slices.Equal(got, again) {
		t.Errorf("candidate generation not deterministic: %v vs %v", got, again)
	}
}

func TestCandidates_Variants(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		namespace string
		want      []string
	}{
		{
			name:  "spaces become underscores and percent encoding",
			input: "Alpha One",
			want:  []string{"Alpha_One", "Alpha%20One", "alpha_one"},
		},
		{
			name:      "namespace variant included when configured",
			input:     "Hero",
			namespace: "Character",
			want:      []string{"Hero", "Character:Hero", "hero"},
		},
		{
			name:  "lowercase input gains a capitalized variant",
			input: "dark lord",
			want:  []string{"dark_lord", "dark%20lord", "Dark_Lord"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidates(tt.input, tt.namespace)
			for _, want := range tt.want {
				if !slices.Contains(got, want) {
					t.Errorf("Candidates(%q, %q) = %v, missing %q", tt.input, tt.namespace, got, want)
				}
			}
		})
	}
}
