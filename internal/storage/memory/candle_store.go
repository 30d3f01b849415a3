package memory

import (
	"context"
	"sort"
	"sync"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

// candleKey is the natural key of one bar.
type candleKey struct {
	pairAddress string
	resolution  domain.Resolution
	aggregate   int
	openTime    int64
}

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[candleKey]*domain.Candle
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[candleKey]*domain.Candle),
	}
}

// InsertBulk adds candles, skipping rows whose key already exists.
// Returns the number of rows actually inserted.
func (s *CandleStore) InsertBulk(_ context.Context, candles []*domain.Candle) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, c := range candles {
		if c == nil || c.PairAddress == "" || !c.Resolution.IsValid() {
			return inserted, storage.ErrInvalidInput
		}

		key := candleKey{c.PairAddress, c.Resolution, c.Aggregate, c.OpenTime}
		if _, exists := s.data[key]; exists {
			continue
		}

		candleCopy := *c
		s.data[key] = &candleCopy
		inserted++
	}

	return inserted, nil
}

// LatestOpenTime returns the newest stored bar start for a pair and
// timeframe. Returns ErrNotFound when no candles exist.
func (s *CandleStore) LatestOpenTime(_ context.Context, pairAddress string, tf domain.Timeframe) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest int64
	found := false
	for key := range s.data {
		if key.pairAddress != pairAddress || key.resolution != tf.Resolution || key.aggregate != tf.Aggregate {
			continue
		}
		if !found || key.openTime > latest {
			latest = key.openTime
			found = true
		}
	}

	if !found {
		return 0, storage.ErrNotFound
	}
	return latest, nil
}

// LatestForPair returns the newest stored bar start for a pair across
// all timeframes. Returns ErrNotFound when no candles exist.
func (s *CandleStore) LatestForPair(_ context.Context, pairAddress string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest int64
	found := false
	for key := range s.data {
		if key.pairAddress != pairAddress {
			continue
		}
		if !found || key.openTime > latest {
			latest = key.openTime
			found = true
		}
	}

	if !found {
		return 0, storage.ErrNotFound
	}
	return latest, nil
}

// GetByPair retrieves candles for a pair and timeframe within
// [start, end] (inclusive), ordered by open_time ASC.
func (s *CandleStore) GetByPair(_ context.Context, pairAddress string, tf domain.Timeframe, start, end int64) ([]*domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Candle
	for key, c := range s.data {
		if key.pairAddress != pairAddress || key.resolution != tf.Resolution || key.aggregate != tf.Aggregate {
			continue
		}
		if key.openTime < start || key.openTime > end {
			continue
		}
		candleCopy := *c
		result = append(result, &candleCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OpenTime < result[j].OpenTime
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.CandleStore = (*CandleStore)(nil)
