package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

func memCandle(pair string, tf domain.Timeframe, openTime int64) *domain.Candle {
	return &domain.Candle{
		PairAddress: pair,
		Chain:       "bsc",
		Resolution:  tf.Resolution,
		Aggregate:   tf.Aggregate,
		OpenTime:    openTime,
		Open:        decimal.NewFromFloat(1.0),
		High:        decimal.NewFromFloat(1.2),
		Low:         decimal.NewFromFloat(0.9),
		Close:       decimal.NewFromFloat(1.1),
		Volume:      decimal.NewFromInt(1000),
	}
}

func TestCandleStore_InsertBulkAndGet(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()
	tf := domain.Timeframe{Resolution: domain.ResolutionMinute, Aggregate: 5}

	candles := []*domain.Candle{
		memCandle("0xpair", tf, 1000),
		memCandle("0xpair", tf, 2000),
		memCandle("0xpair", tf, 3000),
	}
	n, err := store.InsertBulk(ctx, candles)
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Inserted %d, want 3", n)
	}

	got, err := store.GetByPair(ctx, "0xpair", tf, 0, 10000)
	if err != nil {
		t.Fatalf("GetByPair failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 candles, got %d", len(got))
	}
	if got[0].OpenTime != 1000 || got[2].OpenTime != 3000 {
		t.Errorf("Unexpected order: %d, %d", got[0].OpenTime, got[2].OpenTime)
	}
}

func TestCandleStore_InsertBulkSkipsDuplicates(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()
	tf := domain.Timeframe{Resolution: domain.ResolutionHour, Aggregate: 1}

	if _, err := store.InsertBulk(ctx, []*domain.Candle{memCandle("0xpair", tf, 1000)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	n, err := store.InsertBulk(ctx, []*domain.Candle{
		memCandle("0xpair", tf, 1000),
		memCandle("0xpair", tf, 2000),
	})
	if err != nil {
		t.Fatalf("Second InsertBulk failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Inserted %d, want 1", n)
	}
}

func TestCandleStore_InsertBulkInvalid(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	bad := memCandle("", domain.Timeframe{Resolution: domain.ResolutionMinute, Aggregate: 1}, 1000)
	_, err := store.InsertBulk(ctx, []*domain.Candle{bad})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestCandleStore_LatestOpenTime(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()
	fine := domain.Timeframe{Resolution: domain.ResolutionMinute, Aggregate: 1}
	coarse := domain.Timeframe{Resolution: domain.ResolutionHour, Aggregate: 4}

	if _, err := store.InsertBulk(ctx, []*domain.Candle{
		memCandle("0xpair", fine, 1000),
		memCandle("0xpair", fine, 5000),
		memCandle("0xpair", coarse, 3000),
	}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.LatestOpenTime(ctx, "0xpair", fine)
	if err != nil {
		t.Fatalf("LatestOpenTime failed: %v", err)
	}
	if got != 5000 {
		t.Errorf("LatestOpenTime = %d, want 5000", got)
	}

	// Across timeframes the newest bar wins.
	latest, err := store.LatestForPair(ctx, "0xpair")
	if err != nil {
		t.Fatalf("LatestForPair failed: %v", err)
	}
	if latest != 5000 {
		t.Errorf("LatestForPair = %d, want 5000", latest)
	}

	if _, err := store.LatestOpenTime(ctx, "0xpair", domain.Timeframe{Resolution: domain.ResolutionDay, Aggregate: 1}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for empty series, got %v", err)
	}
	if _, err := store.LatestForPair(ctx, "0xother"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown pair, got %v", err)
	}
}

func TestCandleStore_GetByPairRange(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()
	tf := domain.Timeframe{Resolution: domain.ResolutionMinute, Aggregate: 15}

	if _, err := store.InsertBulk(ctx, []*domain.Candle{
		memCandle("0xpair", tf, 1000),
		memCandle("0xpair", tf, 2000),
		memCandle("0xpair", tf, 3000),
		memCandle("0xpair", tf, 4000),
	}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Bounds are inclusive.
	got, err := store.GetByPair(ctx, "0xpair", tf, 2000, 3000)
	if err != nil {
		t.Fatalf("GetByPair failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(got))
	}
	if got[0].OpenTime != 2000 || got[1].OpenTime != 3000 {
		t.Errorf("Unexpected window: %d, %d", got[0].OpenTime, got[1].OpenTime)
	}
}
