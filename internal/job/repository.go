package job

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists jobs and their status transitions. Implementations
// must apply each mutation atomically with respect to concurrent reads and
// must refuse transitions out of a terminal status.
type Repository interface {
	Create(ctx context.Context, userID uuid.UUID, title, description string) (*Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)
	// ListByUser returns the user's jobs newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// Complete marks the job completed and records the scorer's figures.
	Complete(ctx context.Context, id uuid.UUID, tokensUsed int, cost float64) error
}
