package memory

import (
	"context"
	"sort"
	"sync"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

// PriceAlertStore is an in-memory implementation of storage.PriceAlertStore.
type PriceAlertStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceAlert // keyed by alert_id
}

// NewPriceAlertStore creates a new in-memory price alert store.
func NewPriceAlertStore() *PriceAlertStore {
	return &PriceAlertStore{
		data: make(map[string]*domain.PriceAlert),
	}
}

// Insert adds a new alert. Returns ErrDuplicateKey if alert_id exists.
func (s *PriceAlertStore) Insert(_ context.Context, a *domain.PriceAlert) error {
	if a == nil || a.AlertID == "" || a.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.AlertID]; exists {
		return storage.ErrDuplicateKey
	}

	alertCopy := *a
	s.data[a.AlertID] = &alertCopy
	return nil
}

// GetByTokenID retrieves all alerts for a token, ordered by triggered_at ASC.
func (s *PriceAlertStore) GetByTokenID(_ context.Context, tokenID string) ([]*domain.PriceAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceAlert
	for _, a := range s.data {
		if a.TokenID == tokenID {
			alertCopy := *a
			result = append(result, &alertCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TriggeredAt < result[j].TriggeredAt
	})

	return result, nil
}

// GetUnacknowledged retrieves all unacknowledged alerts, ordered by triggered_at ASC.
func (s *PriceAlertStore) GetUnacknowledged(_ context.Context) ([]*domain.PriceAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceAlert
	for _, a := range s.data {
		if !a.Acknowledged {
			alertCopy := *a
			result = append(result, &alertCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TriggeredAt < result[j].TriggeredAt
	})

	return result, nil
}

// Acknowledge marks an alert as seen. Returns ErrNotFound if not exists.
func (s *PriceAlertStore) Acknowledge(_ context.Context, alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.data[alertID]
	if !exists {
		return storage.ErrNotFound
	}

	a.Acknowledged = true
	return nil
}

// Verify interface compliance at compile time.
var _ storage.PriceAlertStore = (*PriceAlertStore)(nil)
