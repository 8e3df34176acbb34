package candidate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/talentsift/talentsift/internal/database"
)

// BunRepository is the postgres-backed candidate store. The batch insert
// runs in a transaction so readers never see a partially stored batch,
// and each row records its rank within the batch to keep equal-score
// ordering stable.
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

func (r *BunRepository) PutBatch(ctx context.Context, jobID uuid.UUID, batch []*Summary) error {
	if len(batch) == 0 {
		return nil
	}

	rows := make([]*database.CandidateSummary, 0, len(batch))
	for i, s := range batch {
		rows = append(rows, &database.CandidateSummary{
			JobID:           jobID,
			Name:            s.Name,
			Email:           s.Email,
			Phone:           s.Phone,
			ExperienceYears: s.ExperienceYears,
			Skills:          s.Skills,
			MatchScore:      s.MatchScore,
			Status:          s.Status,
			Reasoning:       s.Reasoning,
			Rank:            i,
		})
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store candidate batch: %w", err)
	}

	return nil
}

func (r *BunRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*Summary, error) {
	return r.list(ctx, jobID, false)
}

func (r *BunRepository) ListShortlisted(ctx context.Context, jobID uuid.UUID) ([]*Summary, error) {
	return r.list(ctx, jobID, true)
}

func (r *BunRepository) list(ctx context.Context, jobID uuid.UUID, shortlistedOnly bool) ([]*Summary, error) {
	var rows []*database.CandidateSummary
	q := r.db.NewSelect().
		Model(&rows).
		Where("job_id = ?", jobID).
		OrderExpr("match_score DESC, rank ASC")

	if shortlistedOnly {
		q = q.Where("status = ?", StatusShortlisted)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	out := make([]*Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, &Summary{
			ID:              row.ID,
			JobID:           row.JobID,
			Name:            row.Name,
			Email:           row.Email,
			Phone:           row.Phone,
			ExperienceYears: row.ExperienceYears,
			Skills:          row.Skills,
			MatchScore:      row.MatchScore,
			Status:          row.Status,
			Reasoning:       row.Reasoning,
			CreatedAt:       row.CreatedAt,
		})
	}
	return out, nil
}
