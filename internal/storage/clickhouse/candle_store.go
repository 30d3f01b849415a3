package clickhouse

import (
	"context"
	"fmt"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds candles, skipping rows whose key already exists.
// MergeTree does not enforce uniqueness at insert time, so duplicates
// are filtered here: first within the batch, then against stored rows.
// Returns the number of rows actually inserted.
func (s *CandleStore) InsertBulk(ctx context.Context, candles []*domain.Candle) (int, error) {
	if len(candles) == 0 {
		return 0, nil
	}

	type key struct {
		pairAddress string
		resolution  domain.Resolution
		aggregate   int
		openTime    int64
	}
	seen := make(map[key]struct{}, len(candles))
	fresh := make([]*domain.Candle, 0, len(candles))

	for _, c := range candles {
		if c == nil || c.PairAddress == "" || !c.Resolution.IsValid() {
			return 0, storage.ErrInvalidInput
		}

		k := key{c.PairAddress, c.Resolution, c.Aggregate, c.OpenTime}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		exists, err := s.exists(ctx, c)
		if err != nil {
			return 0, fmt.Errorf("check exists: %w", err)
		}
		if exists {
			continue
		}
		fresh = append(fresh, c)
	}

	if len(fresh) == 0 {
		return 0, nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			pair_address, chain, resolution, aggregate, open_time,
			open, high, low, close, volume
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range fresh {
		err = batch.Append(
			c.PairAddress, c.Chain, string(c.Resolution), uint16(c.Aggregate), uint64(c.OpenTime),
			c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			return 0, fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("send batch: %w", err)
	}

	return len(fresh), nil
}

// LatestOpenTime returns the newest stored bar start for a pair and
// timeframe. Returns ErrNotFound when no candles exist.
func (s *CandleStore) LatestOpenTime(ctx context.Context, pairAddress string, tf domain.Timeframe) (int64, error) {
	query := `
		SELECT count(*), max(open_time)
		FROM candles
		WHERE pair_address = ? AND resolution = ? AND aggregate = ?
	`

	var count, latest uint64
	err := s.conn.QueryRow(ctx, query, pairAddress, string(tf.Resolution), uint16(tf.Aggregate)).Scan(&count, &latest)
	if err != nil {
		return 0, fmt.Errorf("latest open time: %w", err)
	}
	if count == 0 {
		return 0, storage.ErrNotFound
	}
	return int64(latest), nil
}

// LatestForPair returns the newest stored bar start for a pair across
// all timeframes. Returns ErrNotFound when no candles exist.
func (s *CandleStore) LatestForPair(ctx context.Context, pairAddress string) (int64, error) {
	query := `
		SELECT count(*), max(open_time)
		FROM candles
		WHERE pair_address = ?
	`

	var count, latest uint64
	err := s.conn.QueryRow(ctx, query, pairAddress).Scan(&count, &latest)
	if err != nil {
		return 0, fmt.Errorf("latest for pair: %w", err)
	}
	if count == 0 {
		return 0, storage.ErrNotFound
	}
	return int64(latest), nil
}

// GetByPair retrieves candles for a pair and timeframe within
// [start, end] (inclusive), ordered by open_time ASC.
func (s *CandleStore) GetByPair(ctx context.Context, pairAddress string, tf domain.Timeframe, start, end int64) ([]*domain.Candle, error) {
	query := `
		SELECT pair_address, chain, resolution, aggregate, open_time,
		       open, high, low, close, volume
		FROM candles
		WHERE pair_address = ? AND resolution = ? AND aggregate = ?
		  AND open_time >= ? AND open_time <= ?
		ORDER BY open_time ASC
	`

	rows, err := s.conn.Query(ctx, query,
		pairAddress, string(tf.Resolution), uint16(tf.Aggregate), uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// exists checks if a candle with the given key exists.
func (s *CandleStore) exists(ctx context.Context, c *domain.Candle) (bool, error) {
	query := `
		SELECT count(*) FROM candles
		WHERE pair_address = ? AND resolution = ? AND aggregate = ? AND open_time = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query,
		c.PairAddress, string(c.Resolution), uint16(c.Aggregate), uint64(c.OpenTime)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanCandles scans multiple rows into a slice of Candle.
func scanCandles(rows chRows) ([]*domain.Candle, error) {
	var candles []*domain.Candle

	for rows.Next() {
		var c domain.Candle
		var resolution string
		var aggregate uint16
		var openTime uint64

		err := rows.Scan(
			&c.PairAddress, &c.Chain, &resolution, &aggregate, &openTime,
			&c.Open, &c.High, &c.Low, &c.Close, &c.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}

		c.Resolution = domain.Resolution(resolution)
		c.Aggregate = int(aggregate)
		c.OpenTime = int64(openTime)
		candles = append(candles, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}

	return candles, nil
}
