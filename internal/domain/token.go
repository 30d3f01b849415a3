package domain

import "github.com/shopspring/decimal"

// TokenStatus represents the monitoring lifecycle state of a token.
type TokenStatus string

const (
	StatusActive  TokenStatus = "active"
	StatusAlerted TokenStatus = "alerted"
	StatusStopped TokenStatus = "stopped"
)

// String returns the string representation of TokenStatus.
func (s TokenStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s TokenStatus) IsValid() bool {
	return s == StatusActive || s == StatusAlerted || s == StatusStopped
}

// RemovalReason explains why a token was soft-deleted from monitoring.
type RemovalReason string

const (
	RemovalLowMarketCap RemovalReason = "low_market_cap"
	RemovalLowLiquidity RemovalReason = "low_liquidity"
	RemovalManual       RemovalReason = "manual"
)

// MonitoredToken represents one token under active price surveillance.
// Corresponds to monitored_tokens table in PostgreSQL.
type MonitoredToken struct {
	TokenID      string // PRIMARY KEY, deterministic hash of (chain, pair)
	TokenAddress string // token contract/mint address
	PairAddress  string // liquidity pool address, unit of observation
	Chain        string // chain identifier (solana, eth, bsc, ...)
	Symbol       string
	Name         string

	EntryPrice   decimal.Decimal // price at enrollment, immutable
	CurrentPrice decimal.Decimal // last observed price
	ATHPrice     decimal.Decimal // highest price ever observed, never decreases
	ATHAt        int64           // Unix ms of last ATH raise

	Status TokenStatus

	// DropThreshold is the legacy single threshold, retained for
	// records created before the ladder existed.
	DropThreshold   float64
	AlertThresholds []float64 // drop-from-ATH ladder, ascending, e.g. [70 80 90]

	// Latest snapshot enrichment, refreshed every tick.
	MarketCap *decimal.Decimal
	TVL       *decimal.Decimal
	Volume24h *decimal.Decimal

	CreatedAt     int64          // Unix ms
	UpdatedAt     int64          // Unix ms of last tick update
	DeletedAt     *int64         // soft-delete marker, Unix ms
	RemovedReason *RemovalReason // set together with DeletedAt
	Purged        bool           // permanent-delete marker
}

// IsDeleted reports whether the token has been soft-deleted.
func (t *MonitoredToken) IsDeleted() bool {
	return t.DeletedAt != nil
}

// Ladder returns the effective alert ladder for the token. Records
// predating the ladder fall back to the legacy single threshold.
func (t *MonitoredToken) Ladder() []float64 {
	if len(t.AlertThresholds) > 0 {
		return t.AlertThresholds
	}
	if t.DropThreshold > 0 {
		return []float64{t.DropThreshold}
	}
	return nil
}
