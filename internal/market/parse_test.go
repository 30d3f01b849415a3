package market

import (
	"encoding/json"
	"testing"
)

// wrap decodes a single raw JSON scalar into a flexNumber.
func wrap(t *testing.T, raw string) flexNumber {
	t.Helper()
	var f flexNumber
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return f
}

func TestFlexNumber_Decimal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string // "" means nil
	}{
		{"json number", `1.5`, "1.5"},
		{"quoted number", `"1.5"`, "1.5"},
		{"tiny price", `"0.000000000012345"`, "0.000000000012345"},
		{"scientific", `1.2e-9`, "0.0000000012"},
		{"null", `null`, ""},
		{"empty string", `""`, ""},
		{"garbage", `"n/a"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := wrap(t, tt.raw)
			got := f.Decimal()
			if tt.want == "" {
				if got != nil {
					t.Errorf("Decimal(%s) = %v, want nil", tt.raw, got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("Decimal(%s) = %v, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFlexNumber_Int(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
		nil_ bool
	}{
		{"integer", `42`, 42, false},
		{"quoted integer", `"42"`, 42, false},
		{"fractional count", `42.0`, 42, false},
		{"null", `null`, 0, true},
		{"garbage", `"many"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := wrap(t, tt.raw)
			got := f.Int()
			if tt.nil_ {
				if got != nil {
					t.Errorf("Int(%s) = %v, want nil", tt.raw, got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("Int(%s) = %v, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFlexNumber_Float(t *testing.T) {
	f := wrap(t, `"-12.5"`)
	got := f.Float()
	if got == nil || *got != -12.5 {
		t.Errorf("Float(-12.5) = %v", got)
	}

	f = wrap(t, `null`)
	if f.Float() != nil {
		t.Error("Float(null) should be nil")
	}
}

func TestFlexNumber_Zero(t *testing.T) {
	// An unset field (never unmarshalled) reads as absent.
	var f flexNumber
	if f.Decimal() != nil || f.Float() != nil || f.Int() != nil {
		t.Error("zero flexNumber should read as absent")
	}
}
