package postgres

import (
	"context"
	"fmt"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

// ConfigStore implements storage.ConfigStore using PostgreSQL.
type ConfigStore struct {
	pool *Pool
}

// NewConfigStore creates a new ConfigStore.
func NewConfigStore(pool *Pool) *ConfigStore {
	return &ConfigStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ConfigStore = (*ConfigStore)(nil)

// Set inserts or replaces a config entry.
func (s *ConfigStore) Set(ctx context.Context, e *domain.ConfigEntry) error {
	if e == nil || e.Key == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO monitor_config (key, value, description, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    description = EXCLUDED.description,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query, e.Key, e.Value, e.Description, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set config entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by key. Returns ErrNotFound if not exists.
func (s *ConfigStore) Get(ctx context.Context, key string) (*domain.ConfigEntry, error) {
	query := `SELECT key, value, description, updated_at FROM monitor_config WHERE key = $1`

	var e domain.ConfigEntry
	err := s.pool.QueryRow(ctx, query, key).Scan(&e.Key, &e.Value, &e.Description, &e.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get config entry: %w", err)
	}
	return &e, nil
}

// GetAll retrieves all entries, ordered by key.
func (s *ConfigStore) GetAll(ctx context.Context) ([]*domain.ConfigEntry, error) {
	query := `SELECT key, value, description, updated_at FROM monitor_config ORDER BY key ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get config entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ConfigEntry
	for rows.Next() {
		var e domain.ConfigEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.Description, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan config entry row: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config entry rows: %w", err)
	}

	return entries, nil
}
