// Package market translates provider JSON into core pair snapshots and
// candles. It owns shape translation only; transport, rate limiting
// and retries live in httpclient.
package market

import (
	"context"
	"net/url"

	"dexwatch/internal/domain"
)

// Gateway is the typed façade over one market-data provider.
type Gateway interface {
	// GetPairSnapshot returns the current market state of a pair, or
	// (nil, nil) when the provider has no record for it. Absence is a
	// normal outcome, not a failure.
	GetPairSnapshot(ctx context.Context, pairAddress, chain string) (*domain.PairSnapshot, error)

	// GetCandles returns up to limit bars for the pair at the given
	// timeframe. from/to are Unix ms bounds; zero means unbounded.
	GetCandles(ctx context.Context, pairAddress, chain string, tf domain.Timeframe, limit int, from, to int64) ([]*domain.Candle, error)
}

// HTTPDoer is the slice of httpclient.Client the gateway needs.
// Tests substitute a stub.
type HTTPDoer interface {
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)
}
