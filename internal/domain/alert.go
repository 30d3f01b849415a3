package domain

import "github.com/shopspring/decimal"

// Severity classifies how deep a collapse is at alert time.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// String returns the string representation of Severity.
func (s Severity) String() string {
	return string(s)
}

// SeverityForDrop maps a drop-from-ATH percentage to a severity level.
func SeverityForDrop(dropPercent float64) Severity {
	switch {
	case dropPercent >= 70:
		return SeverityCritical
	case dropPercent >= 50:
		return SeverityHigh
	case dropPercent >= 30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// PriceAlert records one threshold crossing for a monitored token.
// Append-only; at most one alert exists per token per ladder tier.
// Corresponds to price_alerts table in PostgreSQL.
type PriceAlert struct {
	AlertID string // PRIMARY KEY, deterministic hash of (token, tier)
	TokenID string // monitored token reference

	TriggeredAt  int64           // Unix ms
	TriggerPrice decimal.Decimal // price at the moment of crossing
	ATHPrice     decimal.Decimal // ATH at the moment of crossing
	EntryPrice   decimal.Decimal

	DropFromATH   float64 // percent
	DropFromEntry float64 // percent

	// Tier is the ladder threshold this alert fired for. Zero on rows
	// written before tiers were recorded; dedup then recomputes the
	// tier from DropFromATH against the current ladder.
	Tier float64

	Severity     Severity
	Acknowledged bool
}
