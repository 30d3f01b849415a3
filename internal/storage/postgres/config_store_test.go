package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewConfigStore(pool)
	ctx := context.Background()

	entry := &domain.ConfigEntry{
		Key:         domain.ConfigKeyAlertThresholds,
		Value:       "70,80,90",
		Description: "drop-from-ATH alert ladder",
		UpdatedAt:   1700000000000,
	}
	require.NoError(t, store.Set(ctx, entry))

	retrieved, err := store.Get(ctx, domain.ConfigKeyAlertThresholds)
	require.NoError(t, err)
	assert.Equal(t, entry.Value, retrieved.Value)
	assert.Equal(t, entry.Description, retrieved.Description)
	assert.Equal(t, entry.UpdatedAt, retrieved.UpdatedAt)
}

func TestConfigStore_SetUpsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewConfigStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &domain.ConfigEntry{
		Key: "tick_interval_minutes", Value: "5", UpdatedAt: 1700000000000,
	}))
	require.NoError(t, store.Set(ctx, &domain.ConfigEntry{
		Key: "tick_interval_minutes", Value: "10", UpdatedAt: 1700000001000,
	}))

	retrieved, err := store.Get(ctx, "tick_interval_minutes")
	require.NoError(t, err)
	assert.Equal(t, "10", retrieved.Value)
	assert.Equal(t, int64(1700000001000), retrieved.UpdatedAt)
}

func TestConfigStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewConfigStore(pool)
	ctx := context.Background()

	_, err := store.Get(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConfigStore_GetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewConfigStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &domain.ConfigEntry{Key: "b", Value: "2", UpdatedAt: 1}))
	require.NoError(t, store.Set(ctx, &domain.ConfigEntry{Key: "a", Value: "1", UpdatedAt: 1}))

	entries, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "b", entries[1].Key)
}
