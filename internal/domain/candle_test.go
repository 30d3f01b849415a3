package domain

import (
	"testing"
	"time"
)

func TestTimeframe_BarDuration(t *testing.T) {
	tests := []struct {
		tf   Timeframe
		want time.Duration
	}{
		{Timeframe{ResolutionMinute, 1}, time.Minute},
		{Timeframe{ResolutionMinute, 15}, 15 * time.Minute},
		{Timeframe{ResolutionHour, 4}, 4 * time.Hour},
		{Timeframe{ResolutionDay, 1}, 24 * time.Hour},
	}

	for _, tt := range tests {
		if got := tt.tf.BarDuration(); got != tt.want {
			t.Errorf("BarDuration(%s) = %v, want %v", tt.tf, got, tt.want)
		}
	}
}

func TestTimeframe_String(t *testing.T) {
	tf := Timeframe{Resolution: ResolutionMinute, Aggregate: 5}
	if got := tf.String(); got != "minute/5" {
		t.Errorf("String() = %q, want minute/5", got)
	}
}

func TestResolution_IsValid(t *testing.T) {
	for _, r := range []Resolution{ResolutionMinute, ResolutionHour, ResolutionDay} {
		if !r.IsValid() {
			t.Errorf("IsValid(%s) = false", r)
		}
	}
	if Resolution("week").IsValid() {
		t.Error("IsValid(week) = true")
	}
}
