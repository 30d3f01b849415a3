package collector

import (
	"time"

	"dexwatch/internal/domain"
)

// DefaultMaxCandles bounds per-pair history regardless of pair age.
const DefaultMaxCandles = 200

// Aggregation candidates probed in order, finest first.
var (
	minuteAggregates = []int{1, 5, 15}
	hourAggregates   = []int{1, 4, 12}
)

// OptimalTimeframe selects the finest timeframe whose bar count for a
// span of length gap stays within maxCandles:
//
//  1. minute bars with aggregation 1, 5, 15
//  2. hour bars with aggregation 1, 4, 12
//  3. day bars, accepting at most maxCandles days of history
//
// Young pairs get minute-level detail; old pairs degrade to daily bars.
func OptimalTimeframe(gap time.Duration, maxCandles int) domain.Timeframe {
	if maxCandles <= 0 {
		maxCandles = DefaultMaxCandles
	}

	minutes := gap.Minutes()
	for _, agg := range minuteAggregates {
		if minutes/float64(agg) <= float64(maxCandles) {
			return domain.Timeframe{Resolution: domain.ResolutionMinute, Aggregate: agg}
		}
	}

	hours := gap.Hours()
	for _, agg := range hourAggregates {
		if hours/float64(agg) <= float64(maxCandles) {
			return domain.Timeframe{Resolution: domain.ResolutionHour, Aggregate: agg}
		}
	}

	return domain.Timeframe{Resolution: domain.ResolutionDay, Aggregate: 1}
}

// DefaultTimeframe is used when a pair's creation time is unknown:
// 4-hour bars cover about a month at the default budget.
func DefaultTimeframe() domain.Timeframe {
	return domain.Timeframe{Resolution: domain.ResolutionHour, Aggregate: 4}
}
