package memory

import (
	"context"
	"sort"
	"sync"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

// PotentialTokenStore is an in-memory implementation of storage.PotentialTokenStore.
type PotentialTokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PotentialToken // keyed by candidate_id
}

// NewPotentialTokenStore creates a new in-memory potential token store.
func NewPotentialTokenStore() *PotentialTokenStore {
	return &PotentialTokenStore{
		data: make(map[string]*domain.PotentialToken),
	}
}

// Insert adds a discovery record. Returns ErrDuplicateKey if candidate_id exists.
func (s *PotentialTokenStore) Insert(_ context.Context, p *domain.PotentialToken) error {
	if p == nil || p.CandidateID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.CandidateID]; exists {
		return storage.ErrDuplicateKey
	}

	recordCopy := *p
	s.data[p.CandidateID] = &recordCopy
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *PotentialTokenStore) GetByID(_ context.Context, candidateID string) (*domain.PotentialToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[candidateID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *p
	return &recordCopy, nil
}

// GetPending retrieves non-deleted, not yet promoted records, ordered
// by discovered_at ASC.
func (s *PotentialTokenStore) GetPending(_ context.Context) ([]*domain.PotentialToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PotentialToken
	for _, p := range s.data {
		if p.DeletedAt != nil || p.Purged || p.PromotedAt != nil {
			continue
		}
		recordCopy := *p
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DiscoveredAt < result[j].DiscoveredAt
	})

	return result, nil
}

// MarkPromoted records the promotion time. Returns ErrNotFound if not exists.
func (s *PotentialTokenStore) MarkPromoted(_ context.Context, candidateID string, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[candidateID]
	if !exists {
		return storage.ErrNotFound
	}

	p.PromotedAt = &at
	return nil
}

// SoftDelete marks a record removed. Idempotent.
func (s *PotentialTokenStore) SoftDelete(_ context.Context, candidateID string, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[candidateID]
	if !exists {
		return storage.ErrNotFound
	}
	if p.DeletedAt != nil {
		return nil
	}

	p.DeletedAt = &at
	return nil
}

// Restore clears the soft-delete marker. Returns ErrNotFound if not exists.
func (s *PotentialTokenStore) Restore(_ context.Context, candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[candidateID]
	if !exists {
		return storage.ErrNotFound
	}

	p.DeletedAt = nil
	return nil
}

// Purge marks a record permanently deleted. Terminal.
func (s *PotentialTokenStore) Purge(_ context.Context, candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[candidateID]
	if !exists {
		return storage.ErrNotFound
	}

	p.Purged = true
	return nil
}

// Verify interface compliance at compile time.
var _ storage.PotentialTokenStore = (*PotentialTokenStore)(nil)
