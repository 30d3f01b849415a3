package memory

import (
	"context"
	"sort"
	"sync"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

// MonitoredTokenStore is an in-memory implementation of storage.MonitoredTokenStore.
type MonitoredTokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MonitoredToken // keyed by token_id
}

// NewMonitoredTokenStore creates a new in-memory monitored token store.
func NewMonitoredTokenStore() *MonitoredTokenStore {
	return &MonitoredTokenStore{
		data: make(map[string]*domain.MonitoredToken),
	}
}

// Insert adds a new token. Returns ErrDuplicateKey if token_id exists.
func (s *MonitoredTokenStore) Insert(_ context.Context, t *domain.MonitoredToken) error {
	if t == nil || t.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TokenID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	tokenCopy := *t
	s.data[t.TokenID] = &tokenCopy
	return nil
}

// GetByID retrieves a token by its ID. Returns ErrNotFound if not exists.
func (s *MonitoredTokenStore) GetByID(_ context.Context, tokenID string) (*domain.MonitoredToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tokenID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// GetByPair retrieves a token by (chain, pair_address). Returns ErrNotFound if not exists.
func (s *MonitoredTokenStore) GetByPair(_ context.Context, chain, pairAddress string) (*domain.MonitoredToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.data {
		if t.Chain == chain && t.PairAddress == pairAddress {
			tokenCopy := *t
			return &tokenCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetActive retrieves non-deleted tokens with status active or alerted,
// ordered by created_at ASC.
func (s *MonitoredTokenStore) GetActive(_ context.Context) ([]*domain.MonitoredToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MonitoredToken
	for _, t := range s.data {
		if t.DeletedAt != nil || t.Purged {
			continue
		}
		if t.Status != domain.StatusActive && t.Status != domain.StatusAlerted {
			continue
		}
		tokenCopy := *t
		result = append(result, &tokenCopy)
	}

	// Sort by created_at ASC, token_id as tiebreaker for stability
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].TokenID < result[j].TokenID
	})

	return result, nil
}

// Update persists mutable tick state. Returns ErrNotFound if token_id not exists.
func (s *MonitoredTokenStore) Update(_ context.Context, t *domain.MonitoredToken) error {
	if t == nil || t.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data[t.TokenID]
	if !exists {
		return storage.ErrNotFound
	}

	updated := *t
	// Soft-delete markers are owned by SoftDelete/Restore/Purge.
	updated.DeletedAt = existing.DeletedAt
	updated.RemovedReason = existing.RemovedReason
	updated.Purged = existing.Purged
	s.data[t.TokenID] = &updated
	return nil
}

// SoftDelete marks a token removed with a reason. Idempotent.
func (s *MonitoredTokenStore) SoftDelete(_ context.Context, tokenID string, reason domain.RemovalReason, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[tokenID]
	if !exists {
		return storage.ErrNotFound
	}
	if t.DeletedAt != nil {
		return nil
	}

	t.DeletedAt = &at
	t.RemovedReason = &reason
	return nil
}

// Restore clears the soft-delete marker. Returns ErrNotFound if not exists.
func (s *MonitoredTokenStore) Restore(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[tokenID]
	if !exists {
		return storage.ErrNotFound
	}

	t.DeletedAt = nil
	t.RemovedReason = nil
	return nil
}

// Purge marks a token permanently deleted. Terminal.
func (s *MonitoredTokenStore) Purge(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[tokenID]
	if !exists {
		return storage.ErrNotFound
	}

	t.Purged = true
	return nil
}

// Verify interface compliance at compile time.
var _ storage.MonitoredTokenStore = (*MonitoredTokenStore)(nil)
