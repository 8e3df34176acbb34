package candidate

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory candidate store.
type MemoryRepository struct {
	mu      sync.RWMutex
	batches map[uuid.UUID][]*Summary
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{batches: make(map[uuid.UUID][]*Summary)}
}

// PutBatch stores all candidates for a job under one lock acquisition, so
// a concurrent reader never observes a partial batch.
func (r *MemoryRepository) PutBatch(ctx context.Context, jobID uuid.UUID, batch []*Summary) error {
	now := time.Now()
	stored := make([]*Summary, 0, len(batch))
	for _, s := range batch {
		clone := *s
		if clone.ID == uuid.Nil {
			clone.ID = uuid.New()
		}
		clone.JobID = jobID
		if clone.CreatedAt.IsZero() {
			clone.CreatedAt = now
		}
		stored = append(stored, &clone)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[jobID] = append(r.batches[jobID], stored...)
	return nil
}

func (r *MemoryRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return rankedClone(r.batches[jobID], func(*Summary) bool { return true }), nil
}

func (r *MemoryRepository) ListShortlisted(ctx context.Context, jobID uuid.UUID) ([]*Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return rankedClone(r.batches[jobID], func(s *Summary) bool { return s.Status == StatusShortlisted }), nil
}

// rankedClone copies the matching summaries sorted by descending match
// score. The stable sort keeps insertion order for equal scores.
func rankedClone(all []*Summary, keep func(*Summary) bool) []*Summary {
	out := make([]*Summary, 0, len(all))
	for _, s := range all {
		if keep(s) {
			clone := *s
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchScore > out[j].MatchScore
	})
	return out
}
