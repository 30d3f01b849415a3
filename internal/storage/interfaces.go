package storage

import (
	"context"

	"dexwatch/internal/domain"
)

// MonitoredTokenStore provides access to monitored_tokens storage.
type MonitoredTokenStore interface {
	// Insert adds a new token. Returns ErrDuplicateKey if token_id exists.
	Insert(ctx context.Context, t *domain.MonitoredToken) error

	// GetByID retrieves a token by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tokenID string) (*domain.MonitoredToken, error)

	// GetByPair retrieves a token by (chain, pair_address). Returns ErrNotFound if not exists.
	GetByPair(ctx context.Context, chain, pairAddress string) (*domain.MonitoredToken, error)

	// GetActive retrieves all non-deleted tokens with status active or
	// alerted, ordered by created_at ASC (stable tick order).
	GetActive(ctx context.Context) ([]*domain.MonitoredToken, error)

	// Update persists mutable tick state (current price, ATH, status,
	// snapshot enrichment). Returns ErrNotFound if token_id not exists.
	Update(ctx context.Context, t *domain.MonitoredToken) error

	// SoftDelete marks a token removed with a reason. Idempotent.
	SoftDelete(ctx context.Context, tokenID string, reason domain.RemovalReason, at int64) error

	// Restore clears the soft-delete marker. Returns ErrNotFound if not exists.
	Restore(ctx context.Context, tokenID string) error

	// Purge marks a token permanently deleted. Terminal.
	Purge(ctx context.Context, tokenID string) error
}

// PriceAlertStore provides access to price_alerts storage. Append-only
// aside from acknowledgement.
type PriceAlertStore interface {
	// Insert adds a new alert. Returns ErrDuplicateKey if alert_id exists.
	Insert(ctx context.Context, a *domain.PriceAlert) error

	// GetByTokenID retrieves all alerts for a token, ordered by triggered_at ASC.
	GetByTokenID(ctx context.Context, tokenID string) ([]*domain.PriceAlert, error)

	// GetUnacknowledged retrieves all unacknowledged alerts, ordered by triggered_at ASC.
	GetUnacknowledged(ctx context.Context) ([]*domain.PriceAlert, error)

	// Acknowledge marks an alert as seen. Returns ErrNotFound if not exists.
	Acknowledge(ctx context.Context, alertID string) error
}

// PotentialTokenStore provides access to potential_tokens storage.
type PotentialTokenStore interface {
	// Insert adds a discovery record. Returns ErrDuplicateKey if candidate_id exists.
	Insert(ctx context.Context, p *domain.PotentialToken) error

	// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, candidateID string) (*domain.PotentialToken, error)

	// GetPending retrieves non-deleted, not yet promoted records,
	// ordered by discovered_at ASC.
	GetPending(ctx context.Context) ([]*domain.PotentialToken, error)

	// MarkPromoted records the promotion time. Returns ErrNotFound if not exists.
	MarkPromoted(ctx context.Context, candidateID string, at int64) error

	// SoftDelete marks a record removed. Idempotent.
	SoftDelete(ctx context.Context, candidateID string, at int64) error

	// Restore clears the soft-delete marker. Returns ErrNotFound if not exists.
	Restore(ctx context.Context, candidateID string) error

	// Purge marks a record permanently deleted. Terminal.
	Purge(ctx context.Context, candidateID string) error
}

// ConfigStore provides access to monitor_config storage.
type ConfigStore interface {
	// Set inserts or replaces a config entry.
	Set(ctx context.Context, e *domain.ConfigEntry) error

	// Get retrieves an entry by key. Returns ErrNotFound if not exists.
	Get(ctx context.Context, key string) (*domain.ConfigEntry, error)

	// GetAll retrieves all entries, ordered by key.
	GetAll(ctx context.Context) ([]*domain.ConfigEntry, error)
}

// CandleStore provides access to candles storage.
type CandleStore interface {
	// InsertBulk adds candles, skipping rows whose
	// (pair, resolution, aggregate, open_time) key already exists.
	// Returns the number of rows actually inserted.
	InsertBulk(ctx context.Context, candles []*domain.Candle) (int, error)

	// LatestOpenTime returns the newest stored bar start for a pair and
	// timeframe. Returns ErrNotFound when no candles exist.
	LatestOpenTime(ctx context.Context, pairAddress string, tf domain.Timeframe) (int64, error)

	// LatestForPair returns the newest stored bar start for a pair
	// across all timeframes. Returns ErrNotFound when no candles exist.
	LatestForPair(ctx context.Context, pairAddress string) (int64, error)

	// GetByPair retrieves candles for a pair and timeframe within
	// [start, end] (inclusive), ordered by open_time ASC.
	GetByPair(ctx context.Context, pairAddress string, tf domain.Timeframe, start, end int64) ([]*domain.Candle, error)
}
