package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

// MonitoredTokenStore implements storage.MonitoredTokenStore using PostgreSQL.
type MonitoredTokenStore struct {
	pool *Pool
}

// NewMonitoredTokenStore creates a new MonitoredTokenStore.
func NewMonitoredTokenStore(pool *Pool) *MonitoredTokenStore {
	return &MonitoredTokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MonitoredTokenStore = (*MonitoredTokenStore)(nil)

const monitoredTokenColumns = `
	token_id, token_address, pair_address, chain, symbol, name,
	entry_price::text, current_price::text, ath_price::text, ath_at,
	status, drop_threshold, alert_thresholds,
	market_cap::text, tvl::text, volume_24h::text,
	created_at, updated_at, deleted_at, removed_reason, purged
`

// Insert adds a new token. Returns ErrDuplicateKey if token_id exists.
func (s *MonitoredTokenStore) Insert(ctx context.Context, t *domain.MonitoredToken) error {
	if t == nil || t.TokenID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO monitored_tokens (
			token_id, token_address, pair_address, chain, symbol, name,
			entry_price, current_price, ath_price, ath_at,
			status, drop_threshold, alert_thresholds,
			market_cap, tvl, volume_24h,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TokenID,
		t.TokenAddress,
		t.PairAddress,
		t.Chain,
		t.Symbol,
		t.Name,
		t.EntryPrice.String(),
		t.CurrentPrice.String(),
		t.ATHPrice.String(),
		t.ATHAt,
		string(t.Status),
		t.DropThreshold,
		t.AlertThresholds,
		nullDecimalArg(t.MarketCap),
		nullDecimalArg(t.TVL),
		nullDecimalArg(t.Volume24h),
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert monitored token: %w", err)
	}
	return nil
}

// GetByID retrieves a token by its ID. Returns ErrNotFound if not exists.
func (s *MonitoredTokenStore) GetByID(ctx context.Context, tokenID string) (*domain.MonitoredToken, error) {
	query := `SELECT ` + monitoredTokenColumns + ` FROM monitored_tokens WHERE token_id = $1`

	row := s.pool.QueryRow(ctx, query, tokenID)
	t, err := scanMonitoredToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get monitored token by id: %w", err)
	}
	return t, nil
}

// GetByPair retrieves a token by (chain, pair_address). Returns ErrNotFound if not exists.
func (s *MonitoredTokenStore) GetByPair(ctx context.Context, chain, pairAddress string) (*domain.MonitoredToken, error) {
	query := `SELECT ` + monitoredTokenColumns + ` FROM monitored_tokens WHERE chain = $1 AND pair_address = $2`

	row := s.pool.QueryRow(ctx, query, chain, pairAddress)
	t, err := scanMonitoredToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get monitored token by pair: %w", err)
	}
	return t, nil
}

// GetActive retrieves non-deleted tokens with status active or alerted,
// ordered by created_at ASC.
func (s *MonitoredTokenStore) GetActive(ctx context.Context) ([]*domain.MonitoredToken, error) {
	query := `
		SELECT ` + monitoredTokenColumns + `
		FROM monitored_tokens
		WHERE deleted_at IS NULL
		  AND NOT purged
		  AND status IN ('active', 'alerted')
		ORDER BY created_at ASC, token_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active tokens: %w", err)
	}
	defer rows.Close()

	return scanMonitoredTokens(rows)
}

// Update persists mutable tick state in one statement so a token's
// derived fields land atomically. Returns ErrNotFound if not exists.
func (s *MonitoredTokenStore) Update(ctx context.Context, t *domain.MonitoredToken) error {
	if t == nil || t.TokenID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE monitored_tokens
		SET current_price = $2,
		    ath_price = $3,
		    ath_at = $4,
		    status = $5,
		    drop_threshold = $6,
		    alert_thresholds = $7,
		    market_cap = $8,
		    tvl = $9,
		    volume_24h = $10,
		    updated_at = $11
		WHERE token_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		t.TokenID,
		t.CurrentPrice.String(),
		t.ATHPrice.String(),
		t.ATHAt,
		string(t.Status),
		t.DropThreshold,
		t.AlertThresholds,
		nullDecimalArg(t.MarketCap),
		nullDecimalArg(t.TVL),
		nullDecimalArg(t.Volume24h),
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update monitored token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SoftDelete marks a token removed with a reason. Idempotent.
func (s *MonitoredTokenStore) SoftDelete(ctx context.Context, tokenID string, reason domain.RemovalReason, at int64) error {
	query := `
		UPDATE monitored_tokens
		SET deleted_at = $2, removed_reason = $3
		WHERE token_id = $1 AND deleted_at IS NULL
	`

	tag, err := s.pool.Exec(ctx, query, tokenID, at, string(reason))
	if err != nil {
		return fmt.Errorf("soft delete monitored token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish already-deleted (fine) from missing.
		if _, err := s.GetByID(ctx, tokenID); err != nil {
			return err
		}
	}
	return nil
}

// Restore clears the soft-delete marker. Returns ErrNotFound if not exists.
func (s *MonitoredTokenStore) Restore(ctx context.Context, tokenID string) error {
	query := `
		UPDATE monitored_tokens
		SET deleted_at = NULL, removed_reason = NULL
		WHERE token_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, tokenID)
	if err != nil {
		return fmt.Errorf("restore monitored token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Purge marks a token permanently deleted. Terminal.
func (s *MonitoredTokenStore) Purge(ctx context.Context, tokenID string) error {
	query := `UPDATE monitored_tokens SET purged = TRUE WHERE token_id = $1`

	tag, err := s.pool.Exec(ctx, query, tokenID)
	if err != nil {
		return fmt.Errorf("purge monitored token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanMonitoredToken scans a single row into a MonitoredToken.
func scanMonitoredToken(row pgx.Row) (*domain.MonitoredToken, error) {
	var t domain.MonitoredToken
	var entryPrice, currentPrice, athPrice string
	var marketCap, tvl, volume24h *string
	var status string
	var removedReason *string

	err := row.Scan(
		&t.TokenID,
		&t.TokenAddress,
		&t.PairAddress,
		&t.Chain,
		&t.Symbol,
		&t.Name,
		&entryPrice,
		&currentPrice,
		&athPrice,
		&t.ATHAt,
		&status,
		&t.DropThreshold,
		&t.AlertThresholds,
		&marketCap,
		&tvl,
		&volume24h,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.DeletedAt,
		&removedReason,
		&t.Purged,
	)
	if err != nil {
		return nil, err
	}

	if t.EntryPrice, err = parseDecimal(entryPrice); err != nil {
		return nil, err
	}
	if t.CurrentPrice, err = parseDecimal(currentPrice); err != nil {
		return nil, err
	}
	if t.ATHPrice, err = parseDecimal(athPrice); err != nil {
		return nil, err
	}
	if t.MarketCap, err = parseNullDecimal(marketCap); err != nil {
		return nil, err
	}
	if t.TVL, err = parseNullDecimal(tvl); err != nil {
		return nil, err
	}
	if t.Volume24h, err = parseNullDecimal(volume24h); err != nil {
		return nil, err
	}

	t.Status = domain.TokenStatus(status)
	if removedReason != nil {
		reason := domain.RemovalReason(*removedReason)
		t.RemovedReason = &reason
	}
	return &t, nil
}

// scanMonitoredTokens scans multiple rows into a slice of MonitoredToken.
func scanMonitoredTokens(rows pgx.Rows) ([]*domain.MonitoredToken, error) {
	var tokens []*domain.MonitoredToken

	for rows.Next() {
		t, err := scanMonitoredToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan monitored token row: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monitored token rows: %w", err)
	}

	return tokens, nil
}
