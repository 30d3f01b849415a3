package domain

import "testing"

func TestMonitoredToken_Ladder(t *testing.T) {
	// The ladder wins when present.
	token := &MonitoredToken{AlertThresholds: []float64{70, 80}, DropThreshold: 50}
	ladder := token.Ladder()
	if len(ladder) != 2 || ladder[0] != 70 {
		t.Errorf("Ladder() = %v, want [70 80]", ladder)
	}

	// Legacy records fall back to the single threshold.
	token = &MonitoredToken{DropThreshold: 50}
	ladder = token.Ladder()
	if len(ladder) != 1 || ladder[0] != 50 {
		t.Errorf("Ladder() = %v, want [50]", ladder)
	}

	// No configuration at all yields nil.
	token = &MonitoredToken{}
	if token.Ladder() != nil {
		t.Errorf("Ladder() = %v, want nil", token.Ladder())
	}
}

func TestMonitoredToken_IsDeleted(t *testing.T) {
	token := &MonitoredToken{}
	if token.IsDeleted() {
		t.Error("fresh token reports deleted")
	}
	at := int64(1700000000000)
	token.DeletedAt = &at
	if !token.IsDeleted() {
		t.Error("soft-deleted token reports alive")
	}
}
