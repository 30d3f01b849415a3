// Package collector maintains bounded per-pair OHLCV history: it
// selects a timeframe that fits the candle budget, fetches only bars
// newer than what is stored, and backfills new pairs page by page.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dexwatch/internal/domain"
	"dexwatch/internal/market"
	"dexwatch/internal/observability"
	"dexwatch/internal/storage"
)

// DefaultPageSize is the provider page size for historical backfill.
const DefaultPageSize = 100

// Collector fetches and persists candles for monitored pairs.
type Collector struct {
	gateway    market.Gateway
	candles    storage.CandleStore
	maxCandles int
	pageSize   int
	logger     *log.Logger
	now        func() time.Time
}

// Options for creating Collector.
type Options struct {
	Gateway    market.Gateway
	Candles    storage.CandleStore
	MaxCandles int // default DefaultMaxCandles
	PageSize   int // default DefaultPageSize
	Logger     *log.Logger
	Now        func() time.Time // test hook
}

// New creates a Collector.
func New(opts Options) *Collector {
	c := &Collector{
		gateway:    opts.Gateway,
		candles:    opts.Candles,
		maxCandles: opts.MaxCandles,
		pageSize:   opts.PageSize,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if c.maxCandles <= 0 {
		c.maxCandles = DefaultMaxCandles
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Result describes one collection run for one pair.
type Result struct {
	PairAddress string
	Timeframe   domain.Timeframe
	Fetched     int
	Saved       int
	Skipped     int // fetched but already stored or not strictly newer
	Incremental bool
}

// Collect updates candle history for one pair. createdAt is the pair
// creation time in Unix ms, zero when unknown.
//
// With stored candles the run is incremental: the gap since the last
// bar drives timeframe selection, and a gap shorter than one bar
// returns an empty result without a network call. Without stored
// candles the run backfills history page by page up to the budget.
func (c *Collector) Collect(ctx context.Context, pairAddress, chain string, createdAt int64) (*Result, error) {
	now := c.now()

	last, err := c.candles.LatestForPair(ctx, pairAddress)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.backfill(ctx, pairAddress, chain, createdAt, now)
	case err != nil:
		return nil, fmt.Errorf("latest candle for %s: %w", pairAddress, err)
	}

	gap := now.Sub(time.UnixMilli(last))
	tf := OptimalTimeframe(gap, c.maxCandles)
	result := &Result{PairAddress: pairAddress, Timeframe: tf, Incremental: true}

	// Already current: nothing new could exist yet.
	if gap < tf.BarDuration() {
		return result, nil
	}

	fetched, err := c.gateway.GetCandles(ctx, pairAddress, chain, tf, c.maxCandles, last, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", pairAddress, err)
	}
	result.Fetched = len(fetched)

	// Providers often return the bar at the boundary again. Keep only
	// bars strictly newer than what this series already has.
	cutoff := int64(-1)
	if seriesLast, err := c.candles.LatestOpenTime(ctx, pairAddress, tf); err == nil {
		cutoff = seriesLast
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("latest %s candle for %s: %w", tf, pairAddress, err)
	}

	fresh := make([]*domain.Candle, 0, len(fetched))
	for _, candle := range fetched {
		if candle.OpenTime > cutoff {
			fresh = append(fresh, candle)
		}
	}

	saved, err := c.candles.InsertBulk(ctx, fresh)
	if err != nil {
		return nil, fmt.Errorf("save candles for %s: %w", pairAddress, err)
	}
	result.Saved = saved
	result.Skipped = result.Fetched - saved

	observability.RecordCandles(result.Fetched, result.Saved)
	c.logf("collected %s %s: fetched=%d saved=%d skipped=%d incremental=true",
		pairAddress, tf, result.Fetched, result.Saved, result.Skipped)
	return result, nil
}

// backfill loads bounded history for a pair with no stored candles,
// paging backwards from now until end-of-history or the budget.
func (c *Collector) backfill(ctx context.Context, pairAddress, chain string, createdAt int64, now time.Time) (*Result, error) {
	var tf domain.Timeframe
	if createdAt > 0 {
		tf = OptimalTimeframe(now.Sub(time.UnixMilli(createdAt)), c.maxCandles)
	} else {
		tf = DefaultTimeframe()
	}
	result := &Result{PairAddress: pairAddress, Timeframe: tf}

	var all []*domain.Candle
	cursor := now.UnixMilli()
	for len(all) < c.maxCandles {
		pageLimit := c.pageSize
		if remaining := c.maxCandles - len(all); remaining < pageLimit {
			pageLimit = remaining
		}

		page, err := c.gateway.GetCandles(ctx, pairAddress, chain, tf, pageLimit, 0, cursor)
		if err != nil {
			return nil, fmt.Errorf("backfill candles for %s: %w", pairAddress, err)
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)

		oldest := page[0].OpenTime
		for _, candle := range page {
			if candle.OpenTime < oldest {
				oldest = candle.OpenTime
			}
		}
		cursor = oldest

		// A short page signals end-of-history.
		if len(page) < pageLimit {
			break
		}
	}
	result.Fetched = len(all)

	saved, err := c.candles.InsertBulk(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("save candles for %s: %w", pairAddress, err)
	}
	result.Saved = saved
	result.Skipped = result.Fetched - saved

	observability.RecordCandles(result.Fetched, result.Saved)
	c.logf("backfilled %s %s: fetched=%d saved=%d", pairAddress, tf, result.Fetched, result.Saved)
	return result, nil
}

// BatchResult summarizes a collection sweep over many pairs.
type BatchResult struct {
	Pairs   int
	Fetched int
	Saved   int
	Failed  int
	Errors  []string
}

// CollectForTokens sweeps candle collection across monitored tokens.
// A failing pair never blocks the remaining pairs; delay spaces out
// provider calls on top of the limiter's own throttling.
func (c *Collector) CollectForTokens(ctx context.Context, tokens []*domain.MonitoredToken, delay time.Duration) *BatchResult {
	batch := &BatchResult{Pairs: len(tokens)}

	for i, token := range tokens {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				batch.Errors = append(batch.Errors, ctx.Err().Error())
				return batch
			case <-time.After(delay):
			}
		}

		result, err := c.Collect(ctx, token.PairAddress, token.Chain, token.CreatedAt)
		if err != nil {
			batch.Failed++
			batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %v", token.PairAddress, err))
			observability.RecordCollectRun("error")
			c.logf("collect %s failed: %v", token.PairAddress, err)
			continue
		}
		batch.Fetched += result.Fetched
		batch.Saved += result.Saved
		observability.RecordCollectRun("ok")
	}

	return batch
}

func (c *Collector) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
