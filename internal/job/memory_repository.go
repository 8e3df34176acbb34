package job

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory job store.
type MemoryRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{jobs: make(map[uuid.UUID]*Job)}
}

func (r *MemoryRepository) Create(ctx context.Context, userID uuid.UUID, title, description string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j := &Job{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      StatusQueued,
		CreatedAt:   time.Now(),
	}
	r.jobs[j.ID] = j

	clone := *j
	return &clone, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *j
	return &clone, nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Job, 0)
	for _, j := range r.jobs {
		if j.UserID == userID {
			clone := *j
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status.Terminal() {
		return nil // terminal states never transition
	}
	j.Status = status
	return nil
}

func (r *MemoryRepository) Complete(ctx context.Context, id uuid.UUID, tokensUsed int, cost float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status.Terminal() {
		return nil
	}
	j.Status = StatusCompleted
	j.TokensUsed = tokensUsed
	j.Cost = cost
	return nil
}
