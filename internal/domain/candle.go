package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Resolution is the base time unit of a candle series.
type Resolution string

const (
	ResolutionMinute Resolution = "minute"
	ResolutionHour   Resolution = "hour"
	ResolutionDay    Resolution = "day"
)

// Duration returns the length of one base unit.
func (r Resolution) Duration() time.Duration {
	switch r {
	case ResolutionMinute:
		return time.Minute
	case ResolutionHour:
		return time.Hour
	case ResolutionDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// IsValid checks if the resolution is a valid value.
func (r Resolution) IsValid() bool {
	return r == ResolutionMinute || r == ResolutionHour || r == ResolutionDay
}

// Timeframe is a candle series granularity: a base resolution and an
// aggregation multiplier, e.g. {minute, 5} for 5-minute bars.
type Timeframe struct {
	Resolution Resolution
	Aggregate  int
}

// BarDuration returns the span covered by one bar.
func (tf Timeframe) BarDuration() time.Duration {
	return time.Duration(tf.Aggregate) * tf.Resolution.Duration()
}

// String renders the timeframe as e.g. "minute/5".
func (tf Timeframe) String() string {
	return string(tf.Resolution) + "/" + strconv.Itoa(tf.Aggregate)
}

// Candle represents one OHLCV bar for a trading pair.
// Keyed by (pair_address, resolution, aggregate, open_time).
// Corresponds to candles table in ClickHouse.
type Candle struct {
	PairAddress string
	Chain       string
	Resolution  Resolution
	Aggregate   int
	OpenTime    int64 // bar start, Unix ms

	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}
