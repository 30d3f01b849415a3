package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

// PotentialTokenStore implements storage.PotentialTokenStore using PostgreSQL.
type PotentialTokenStore struct {
	pool *Pool
}

// NewPotentialTokenStore creates a new PotentialTokenStore.
func NewPotentialTokenStore(pool *Pool) *PotentialTokenStore {
	return &PotentialTokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PotentialTokenStore = (*PotentialTokenStore)(nil)

const potentialTokenColumns = `
	candidate_id, token_address, pair_address, chain, symbol, name,
	price::text, market_cap::text, liquidity::text, change_24h,
	discovered_at, promoted_at, deleted_at, purged
`

// Insert adds a discovery record. Returns ErrDuplicateKey if candidate_id exists.
func (s *PotentialTokenStore) Insert(ctx context.Context, p *domain.PotentialToken) error {
	if p == nil || p.CandidateID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO potential_tokens (
			candidate_id, token_address, pair_address, chain, symbol, name,
			price, market_cap, liquidity, change_24h, discovered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		p.CandidateID,
		p.TokenAddress,
		p.PairAddress,
		p.Chain,
		p.Symbol,
		p.Name,
		p.Price.String(),
		nullDecimalArg(p.MarketCap),
		nullDecimalArg(p.Liquidity),
		p.Change24h,
		p.DiscoveredAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert potential token: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *PotentialTokenStore) GetByID(ctx context.Context, candidateID string) (*domain.PotentialToken, error) {
	query := `SELECT ` + potentialTokenColumns + ` FROM potential_tokens WHERE candidate_id = $1`

	row := s.pool.QueryRow(ctx, query, candidateID)
	p, err := scanPotentialToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get potential token by id: %w", err)
	}
	return p, nil
}

// GetPending retrieves non-deleted, not yet promoted records, ordered
// by discovered_at ASC.
func (s *PotentialTokenStore) GetPending(ctx context.Context) ([]*domain.PotentialToken, error) {
	query := `
		SELECT ` + potentialTokenColumns + `
		FROM potential_tokens
		WHERE deleted_at IS NULL AND NOT purged AND promoted_at IS NULL
		ORDER BY discovered_at ASC, candidate_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get pending potential tokens: %w", err)
	}
	defer rows.Close()

	return scanPotentialTokens(rows)
}

// MarkPromoted records the promotion time. Returns ErrNotFound if not exists.
func (s *PotentialTokenStore) MarkPromoted(ctx context.Context, candidateID string, at int64) error {
	query := `UPDATE potential_tokens SET promoted_at = $2 WHERE candidate_id = $1`

	tag, err := s.pool.Exec(ctx, query, candidateID, at)
	if err != nil {
		return fmt.Errorf("mark potential token promoted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SoftDelete marks a record removed. Idempotent.
func (s *PotentialTokenStore) SoftDelete(ctx context.Context, candidateID string, at int64) error {
	query := `
		UPDATE potential_tokens
		SET deleted_at = $2
		WHERE candidate_id = $1 AND deleted_at IS NULL
	`

	tag, err := s.pool.Exec(ctx, query, candidateID, at)
	if err != nil {
		return fmt.Errorf("soft delete potential token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetByID(ctx, candidateID); err != nil {
			return err
		}
	}
	return nil
}

// Restore clears the soft-delete marker. Returns ErrNotFound if not exists.
func (s *PotentialTokenStore) Restore(ctx context.Context, candidateID string) error {
	query := `UPDATE potential_tokens SET deleted_at = NULL WHERE candidate_id = $1`

	tag, err := s.pool.Exec(ctx, query, candidateID)
	if err != nil {
		return fmt.Errorf("restore potential token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Purge marks a record permanently deleted. Terminal.
func (s *PotentialTokenStore) Purge(ctx context.Context, candidateID string) error {
	query := `UPDATE potential_tokens SET purged = TRUE WHERE candidate_id = $1`

	tag, err := s.pool.Exec(ctx, query, candidateID)
	if err != nil {
		return fmt.Errorf("purge potential token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanPotentialToken scans a single row into a PotentialToken.
func scanPotentialToken(row pgx.Row) (*domain.PotentialToken, error) {
	var p domain.PotentialToken
	var price string
	var marketCap, liquidity *string

	err := row.Scan(
		&p.CandidateID,
		&p.TokenAddress,
		&p.PairAddress,
		&p.Chain,
		&p.Symbol,
		&p.Name,
		&price,
		&marketCap,
		&liquidity,
		&p.Change24h,
		&p.DiscoveredAt,
		&p.PromotedAt,
		&p.DeletedAt,
		&p.Purged,
	)
	if err != nil {
		return nil, err
	}

	if p.Price, err = parseDecimal(price); err != nil {
		return nil, err
	}
	if p.MarketCap, err = parseNullDecimal(marketCap); err != nil {
		return nil, err
	}
	if p.Liquidity, err = parseNullDecimal(liquidity); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanPotentialTokens scans multiple rows into a slice of PotentialToken.
func scanPotentialTokens(rows pgx.Rows) ([]*domain.PotentialToken, error) {
	var records []*domain.PotentialToken

	for rows.Next() {
		p, err := scanPotentialToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan potential token row: %w", err)
		}
		records = append(records, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate potential token rows: %w", err)
	}

	return records, nil
}
