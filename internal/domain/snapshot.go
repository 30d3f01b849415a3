package domain

import "github.com/shopspring/decimal"

// WindowStats holds provider figures for one lookback window
// (1m, 5m, 15m, 30m, 1h, 4h, 24h). All fields are optional: providers
// omit windows they have no trades for.
type WindowStats struct {
	PriceChangePercent *float64
	Volume             *decimal.Decimal
	TxCount            *int64
	Buys               *int64
	Sells              *int64
}

// PairSnapshot is the current market state of one trading pair as
// reported by the data provider. Every numeric field except Price is
// optional; absence means the provider did not report it, never an error.
type PairSnapshot struct {
	PairAddress string
	Chain       string
	Symbol      string
	Name        string

	Price decimal.Decimal

	// ATHPrice is the provider's blockchain-level all-time high,
	// when it exposes one.
	ATHPrice *decimal.Decimal

	TVL       *decimal.Decimal
	MarketCap *decimal.Decimal // falls back to FDV when market cap is absent

	// Windowed figures keyed by window label: "1m", "5m", "15m",
	// "30m", "1h", "4h", "24h".
	Windows map[string]WindowStats

	// 24h OHLC extremes.
	High24h *decimal.Decimal
	Low24h  *decimal.Decimal
	Open24h *decimal.Decimal

	Makers  *int64
	Buyers  *int64
	Sellers *int64

	// LP lock info.
	LPHolders       *int64
	LPLockedPercent *float64
	LockPlatform    string

	FirstTradeAt *int64 // Unix ms, pair creation proxy
	ObservedAt   int64  // Unix ms when the snapshot was taken
}

// SnapshotWindows is the canonical window label order.
var SnapshotWindows = []string{"1m", "5m", "15m", "30m", "1h", "4h", "24h"}
