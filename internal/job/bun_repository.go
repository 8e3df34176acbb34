package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/talentsift/talentsift/internal/database"
)

// BunRepository is the postgres-backed job store. Status updates guard
// against leaving a terminal state in the WHERE clause.
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

func (r *BunRepository) Create(ctx context.Context, userID uuid.UUID, title, description string) (*Job, error) {
	row := &database.Job{
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      string(StatusQueued),
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return mapDBJobToModel(row), nil
}

func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := new(database.Job)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return mapDBJobToModel(row), nil
}

func (r *BunRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Job, error) {
	var rows []*database.Job
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	out := make([]*Job, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapDBJobToModel(row))
	}
	return out, nil
}

func (r *BunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	_, err := r.db.NewUpdate().
		Model((*database.Job)(nil)).
		Set("status = ?", string(status)).
		Where("id = ?", id).
		Where("status NOT IN (?, ?)", string(StatusCompleted), string(StatusFailed)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

func (r *BunRepository) Complete(ctx context.Context, id uuid.UUID, tokensUsed int, cost float64) error {
	_, err := r.db.NewUpdate().
		Model((*database.Job)(nil)).
		Set("status = ?", string(StatusCompleted)).
		Set("tokens_used = ?", tokensUsed).
		Set("cost = ?", cost).
		Where("id = ?", id).
		Where("status NOT IN (?, ?)", string(StatusCompleted), string(StatusFailed)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

func mapDBJobToModel(row *database.Job) *Job {
	return &Job{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		Description: row.Description,
		Status:      Status(row.Status),
		TokensUsed:  row.TokensUsed,
		Cost:        row.Cost,
		CreatedAt:   row.CreatedAt,
	}
}
