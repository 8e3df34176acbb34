package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Usage aggregates lifetime totals per user. Totals only ever grow;
// nothing subtracts from them.
type Usage struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	TotalJobs       int       `json:"total_jobs"`
	TotalCandidates int       `json:"total_candidates"`
	TotalTokensUsed int       `json:"total_tokens_used"`
	TotalCost       float64   `json:"total_cost"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Repository persists per-user usage aggregates. Accumulate creates a
// zeroed record on first use; Get returns a zeroed record for users with
// no usage yet.
type Repository interface {
	Accumulate(ctx context.Context, userID uuid.UUID, jobs, candidates, tokens int, cost float64) error
	Get(ctx context.Context, userID uuid.UUID) (*Usage, error)
}
