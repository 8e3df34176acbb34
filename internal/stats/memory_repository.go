package stats

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory usage store.
type MemoryRepository struct {
	mu    sync.RWMutex
	usage map[uuid.UUID]*Usage
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{usage: make(map[uuid.UUID]*Usage)}
}

func (r *MemoryRepository) Accumulate(ctx context.Context, userID uuid.UUID, jobs, candidates, tokens int, cost float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.usage[userID]
	if !ok {
		u = &Usage{ID: uuid.New(), UserID: userID}
		r.usage[userID] = u
	}

	u.TotalJobs += jobs
	u.TotalCandidates += candidates
	u.TotalTokensUsed += tokens
	u.TotalCost += cost
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, userID uuid.UUID) (*Usage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.usage[userID]
	if !ok {
		return &Usage{UserID: userID}, nil
	}
	clone := *u
	return &clone, nil
}
