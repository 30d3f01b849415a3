package idhash

import "testing"

func TestComputeAlertID(t *testing.T) {
	tokenID := ComputeTokenID("bsc", "0xpair")

	got := ComputeAlertID(tokenID, 80)
	if len(got) != 64 {
		t.Errorf("ComputeAlertID() length = %d, want 64", len(got))
	}

	// Verify determinism: same inputs should produce same output
	if got != ComputeAlertID(tokenID, 80) {
		t.Error("ComputeAlertID() not deterministic")
	}
}

func TestComputeAlertID_DifferentTiers(t *testing.T) {
	tokenID := ComputeTokenID("bsc", "0xpair")
	base := ComputeAlertID(tokenID, 70)

	if base == ComputeAlertID(tokenID, 80) {
		t.Error("Different tier should produce different hash")
	}
	if base == ComputeAlertID(ComputeTokenID("bsc", "0xother"), 70) {
		t.Error("Different token should produce different hash")
	}
}

func TestComputeAlertID_FractionalTier(t *testing.T) {
	tokenID := ComputeTokenID("bsc", "0xpair")

	// A fractional tier must not collide with its integer neighbour.
	if ComputeAlertID(tokenID, 72.5) == ComputeAlertID(tokenID, 72) {
		t.Error("Fractional tier should produce different hash")
	}
	if ComputeAlertID(tokenID, 72.5) != ComputeAlertID(tokenID, 72.5) {
		t.Error("ComputeAlertID() not deterministic for fractional tier")
	}
}
