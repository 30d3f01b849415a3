package market

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// The provider serializes numbers inconsistently: sometimes JSON
// numbers, sometimes quoted strings, sometimes null or "". Every field
// is therefore decoded defensively; a value that does not parse is
// treated as absent, never as a fatal error.

// flexNumber holds a raw JSON scalar for lazy numeric interpretation.
type flexNumber struct {
	raw json.RawMessage
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	f.raw = append(f.raw[:0], data...)
	return nil
}

// str returns the scalar as an unquoted, trimmed string, or "" when
// the value is absent or null.
func (f *flexNumber) str() string {
	raw := strings.TrimSpace(string(f.raw))
	if raw == "" || raw == "null" {
		return ""
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	return strings.TrimSpace(raw)
}

// Decimal parses the scalar as a fixed-point decimal, nil when absent
// or malformed.
func (f *flexNumber) Decimal() *decimal.Decimal {
	s := f.str()
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// Float parses the scalar as a float64, nil when absent or malformed.
func (f *flexNumber) Float() *float64 {
	s := f.str()
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Int parses the scalar as an int64, tolerating a fractional tail the
// provider sometimes appends to counts. Nil when absent or malformed.
func (f *flexNumber) Int() *int64 {
	s := f.str()
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &i
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	i := int64(v)
	return &i
}
