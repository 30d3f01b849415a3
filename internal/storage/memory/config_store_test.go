package memory

import (
	"context"
	"errors"
	"testing"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()

	e := &domain.ConfigEntry{
		Key:         domain.ConfigKeyAlertThresholds,
		Value:       "70,80,90",
		Description: "drop-from-ATH ladder",
		UpdatedAt:   1000,
	}
	if err := store.Set(ctx, e); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, domain.ConfigKeyAlertThresholds)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Value != "70,80,90" {
		t.Errorf("Value mismatch: got %s", got.Value)
	}
}

func TestConfigStore_SetReplaces(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()

	if err := store.Set(ctx, &domain.ConfigEntry{Key: "k", Value: "old", UpdatedAt: 1000}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, &domain.ConfigEntry{Key: "k", Value: "new", UpdatedAt: 2000}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, _ := store.Get(ctx, "k")
	if got.Value != "new" || got.UpdatedAt != 2000 {
		t.Errorf("Entry not replaced: %+v", got)
	}
}

func TestConfigStore_NotFound(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestConfigStore_GetAll(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()

	for _, key := range []string{"zeta", "alpha", "mid"} {
		if err := store.Set(ctx, &domain.ConfigEntry{Key: key, Value: "v"}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(got))
	}
	if got[0].Key != "alpha" || got[1].Key != "mid" || got[2].Key != "zeta" {
		t.Errorf("Unexpected order: %s, %s, %s", got[0].Key, got[1].Key, got[2].Key)
	}
}
