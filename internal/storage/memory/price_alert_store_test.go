package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

func memAlert(id, tokenID string, triggeredAt int64) *domain.PriceAlert {
	return &domain.PriceAlert{
		AlertID:       id,
		TokenID:       tokenID,
		TriggeredAt:   triggeredAt,
		TriggerPrice:  decimal.NewFromFloat(0.2),
		ATHPrice:      decimal.NewFromFloat(1.0),
		EntryPrice:    decimal.NewFromFloat(0.5),
		DropFromATH:   80,
		DropFromEntry: -60,
		Tier:          80,
		Severity:      domain.SeverityCritical,
	}
}

func TestPriceAlertStore_InsertAndGet(t *testing.T) {
	store := NewPriceAlertStore()
	ctx := context.Background()

	a := memAlert("a1", "t1", 1000)
	if err := store.Insert(ctx, a); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByTokenID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByTokenID failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(got))
	}
	if got[0].Tier != 80 || got[0].Severity != domain.SeverityCritical {
		t.Errorf("Alert mismatch: tier %v severity %s", got[0].Tier, got[0].Severity)
	}
}

func TestPriceAlertStore_DuplicateKey(t *testing.T) {
	store := NewPriceAlertStore()
	ctx := context.Background()

	if err := store.Insert(ctx, memAlert("a1", "t1", 1000)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	err := store.Insert(ctx, memAlert("a1", "t1", 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPriceAlertStore_Ordering(t *testing.T) {
	store := NewPriceAlertStore()
	ctx := context.Background()

	for _, a := range []*domain.PriceAlert{
		memAlert("a2", "t1", 3000),
		memAlert("a1", "t1", 1000),
		memAlert("b1", "t2", 2000),
	} {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByTokenID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByTokenID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(got))
	}
	if got[0].AlertID != "a1" || got[1].AlertID != "a2" {
		t.Errorf("Unexpected order: %s, %s", got[0].AlertID, got[1].AlertID)
	}
}

func TestPriceAlertStore_Acknowledge(t *testing.T) {
	store := NewPriceAlertStore()
	ctx := context.Background()

	if err := store.Insert(ctx, memAlert("a1", "t1", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, memAlert("a2", "t1", 2000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.Acknowledge(ctx, "a1"); err != nil {
		t.Fatalf("Acknowledge failed: %v", err)
	}

	pending, err := store.GetUnacknowledged(ctx)
	if err != nil {
		t.Fatalf("GetUnacknowledged failed: %v", err)
	}
	if len(pending) != 1 || pending[0].AlertID != "a2" {
		t.Errorf("Unexpected pending set: %+v", pending)
	}

	if err := store.Acknowledge(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
