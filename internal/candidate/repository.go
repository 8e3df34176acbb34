package candidate

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists candidate summaries per job.
//
// PutBatch is atomic from the caller's perspective: readers either see the
// whole batch or none of it. ListByJob orders by descending match score
// with ties broken by the batch's insertion order (stable).
type Repository interface {
	PutBatch(ctx context.Context, jobID uuid.UUID, batch []*Summary) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*Summary, error)
	ListShortlisted(ctx context.Context, jobID uuid.UUID) ([]*Summary, error)
}
