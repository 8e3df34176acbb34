package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/talentsift/talentsift/internal/database"
)

// BunRepository is the postgres-backed usage store.
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

// Accumulate upserts the per-user aggregate, adding the deltas to the
// running totals in a single statement.
func (r *BunRepository) Accumulate(ctx context.Context, userID uuid.UUID, jobs, candidates, tokens int, cost float64) error {
	row := &database.JobStats{
		UserID:          userID,
		TotalJobs:       jobs,
		TotalCandidates: candidates,
		TotalTokensUsed: tokens,
		TotalCost:       cost,
	}

	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("total_jobs = js.total_jobs + EXCLUDED.total_jobs").
		Set("total_candidates = js.total_candidates + EXCLUDED.total_candidates").
		Set("total_tokens_used = js.total_tokens_used + EXCLUDED.total_tokens_used").
		Set("total_cost = js.total_cost + EXCLUDED.total_cost").
		Set("updated_at = NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to accumulate usage stats: %w", err)
	}

	return nil
}

func (r *BunRepository) Get(ctx context.Context, userID uuid.UUID) (*Usage, error) {
	row := new(database.JobStats)
	err := r.db.NewSelect().
		Model(row).
		Where("user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Usage{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}

	return &Usage{
		ID:              row.ID,
		UserID:          row.UserID,
		TotalJobs:       row.TotalJobs,
		TotalCandidates: row.TotalCandidates,
		TotalTokensUsed: row.TotalTokensUsed,
		TotalCost:       row.TotalCost,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}
