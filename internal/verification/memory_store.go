package verification

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-memory code store. Expired records
// linger until claimed or deleted; the registry rejects them on claim.
type MemoryStore struct {
	mu    sync.RWMutex
	codes map[uuid.UUID]*Code
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[uuid.UUID]*Code)}
}

func (s *MemoryStore) Create(ctx context.Context, code *Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *code
	s.codes[code.ID] = &clone
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, email, code string) (*Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.codes {
		if c.Email == email && c.Code == code {
			clone := *c
			return &clone, nil
		}
	}
	return nil, ErrInvalidOrExpired
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.codes, id)
	return nil
}
