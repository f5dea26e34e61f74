package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore tracks token IDs that were invalidated before their
// natural expiry. Implementations only need to retain an entry until the
// supplied deadline.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type memoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemoryRevocationStore returns a process-local revocation store.
func NewMemoryRevocationStore() RevocationStore {
	return &memoryRevocationStore{entries: make(map[string]time.Time)}
}

func (s *memoryRevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tokenID] = until
	return nil
}

func (s *memoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	until, ok := s.entries[tokenID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		s.mu.Lock()
		delete(s.entries, tokenID)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}
