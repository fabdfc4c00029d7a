package models

import (
	"errors"
	"testing"
)

func TestRunReport_Counters(t *testing.T) {
	r := NewRunReport()

	r.RecordSuccess("Common")
	r.RecordSuccess("Common")
	r.RecordFailure("Common")
	r.RecordSuccess("Rare")

	if r.Succeeded+r.Failed != r.Total {
		t.Errorf("invariant broken: %d + %d != %d", r.Succeeded, r.Failed, r.Total)
	}
	if r.Total != 4 || r.Succeeded != 3 || r.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 4/3/1", r.Total, r.Succeeded, r.Failed)
	}

	common := r.Groups["Common"]
	if common.Total != 3 || common.Succeeded != 2 || common.Failed != 1 {
		t.Errorf("Common = %+v, want 3/2/1", common)
	}

	r.RecordAsset("Common", true)
	r.RecordAsset("Rare", false)
	if r.AssetsOK() != 1 || r.AssetsFailed() != 1 {
		t.Errorf("assets = %d/%d, want 1/1", r.AssetsOK(), r.AssetsFailed())
	}
	if r.AssetsOK()+r.AssetsFailed() > r.Succeeded {
		t.Errorf("asset invariant broken: %d+%d > %d", r.AssetsOK(), r.AssetsFailed(), r.Succeeded)
	}
}

func TestHarvestError_CodeOf(t *testing.T) {
	base := NewHarvestError(ErrCodeRateLimited, "slow down", nil)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"direct", base, ErrCodeRateLimited},
		{"wrapped", errors.New("outer: " + base.Error()), ErrCodeInternal},
		{"fmt wrapped", &HarvestError{Code: ErrCodePageNotFound, Message: "x", Err: base}, ErrCodePageNotFound},
		{"plain error", errors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf = %q, want %q", got, tt.want)
			}
		})
	}

	if !IsCode(base, ErrCodeRateLimited) {
		t.Error("IsCode should match the carried code")
	}
	if IsCode(nil, ErrCodeRateLimited) {
		t.Error("IsCode(nil) must be false")
	}
}
