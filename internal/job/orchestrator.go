package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talentsift/talentsift/internal/candidate"
	"github.com/talentsift/talentsift/internal/credits"
	"github.com/talentsift/talentsift/internal/logging"
	"github.com/talentsift/talentsift/internal/scoring"
	"github.com/talentsift/talentsift/internal/stats"
)

// Orchestrator drives a job from submission through asynchronous scoring
// to its terminal state, settling credits and usage totals on the way.
//
// Submission reserves a credit up front; the reservation is committed only
// when scoring succeeds and released otherwise, so a failed job never
// costs a credit and concurrent submissions never outrun the balance.
type Orchestrator struct {
	jobs           Repository
	candidates     candidate.Repository
	ledger         *credits.Ledger
	usage          stats.Repository
	scorer         scoring.Scorer
	dispatcher     Dispatcher
	logger         *logging.Logger
	scoringTimeout time.Duration
}

func NewOrchestrator(
	jobs Repository,
	candidates candidate.Repository,
	ledger *credits.Ledger,
	usage stats.Repository,
	scorer scoring.Scorer,
	dispatcher Dispatcher,
	logger *logging.Logger,
	scoringTimeout time.Duration,
) *Orchestrator {
	return &Orchestrator{
		jobs:           jobs,
		candidates:     candidates,
		ledger:         ledger,
		usage:          usage,
		scorer:         scorer,
		dispatcher:     dispatcher,
		logger:         logger,
		scoringTimeout: scoringTimeout,
	}
}

// Submit accepts a screening job. It returns as soon as the job is stored
// and queued; scoring happens on the dispatcher's workers. Without an
// unreserved credit the submission fails with credits.ErrInsufficientCredits
// and no job is created.
func (o *Orchestrator) Submit(ctx context.Context, userID uuid.UUID, title, description string, resumes []scoring.Resume) (*Job, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionRequired
	}

	if err := o.ledger.Reserve(ctx, userID); err != nil {
		return nil, err
	}

	j, err := o.jobs.Create(ctx, userID, title, description)
	if err != nil {
		o.ledger.Release(ctx, userID)
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	jobID := j.ID
	err = o.dispatcher.Dispatch(func(taskCtx context.Context) {
		o.process(taskCtx, jobID, userID, description, resumes)
	})
	if err != nil {
		// The job exists but will never run; fail it now rather than
		// leaving it queued forever, and give the credit back.
		o.ledger.Release(ctx, userID)
		if statusErr := o.jobs.UpdateStatus(ctx, jobID, StatusFailed); statusErr != nil {
			o.logger.Error("failed to fail undispatched job", "job_id", jobID, "error", statusErr)
		}
		return nil, err
	}

	return j, nil
}

// process is the asynchronous half of a submission. It always leaves the
// job in a terminal state.
func (o *Orchestrator) process(ctx context.Context, jobID, userID uuid.UUID, description string, resumes []scoring.Resume) {
	logger := o.logger.WithFields(map[string]any{"job_id": jobID, "user_id": userID})

	if err := o.jobs.UpdateStatus(ctx, jobID, StatusProcessing); err != nil {
		logger.Error("failed to mark job processing", "error", err)
	}

	scoreCtx, cancel := context.WithTimeout(ctx, o.scoringTimeout)
	defer cancel()

	result, err := o.scorer.Score(scoreCtx, description, resumes)
	if err != nil {
		logger.Warn("scoring failed", "error", err)
		o.fail(ctx, jobID, userID)
		return
	}

	batch := make([]*candidate.Summary, 0, len(result.Candidates))
	for _, rc := range result.Candidates {
		batch = append(batch, &candidate.Summary{
			Name:            rc.Name,
			Email:           rc.Email,
			Phone:           rc.Phone,
			ExperienceYears: rc.ExperienceYears,
			Skills:          rc.Skills,
			MatchScore:      rc.MatchScore,
			Status:          rc.Status,
			Reasoning:       rc.Reasoning,
		})
	}

	if err := o.candidates.PutBatch(ctx, jobID, batch); err != nil {
		logger.Error("failed to store candidate batch", "error", err)
		o.fail(ctx, jobID, userID)
		return
	}

	if err := o.jobs.Complete(ctx, jobID, result.TokensUsed, result.Cost); err != nil {
		logger.Error("failed to complete job", "error", err)
		o.fail(ctx, jobID, userID)
		return
	}

	if err := o.ledger.Commit(ctx, userID); err != nil {
		logger.Error("failed to commit credit", "error", err)
	}

	if err := o.usage.Accumulate(ctx, userID, 1, len(batch), result.TokensUsed, result.Cost); err != nil {
		logger.Error("failed to accumulate usage stats", "error", err)
	}

	logger.Info("job completed",
		"candidates", len(batch),
		"tokens_used", result.TokensUsed,
		"cost", result.Cost,
	)
}

// fail records the terminal failed status and returns the reserved credit.
// The ledger and usage stats are untouched beyond the release.
func (o *Orchestrator) fail(ctx context.Context, jobID, userID uuid.UUID) {
	if err := o.jobs.UpdateStatus(ctx, jobID, StatusFailed); err != nil {
		o.logger.Error("failed to mark job failed", "job_id", jobID, "error", err)
	}
	o.ledger.Release(ctx, userID)
}

// Status returns the job for its owner, ErrNotFound otherwise. Jobs owned
// by other users are indistinguishable from missing ones.
func (o *Orchestrator) Status(ctx context.Context, userID, jobID uuid.UUID) (*Job, error) {
	j, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.UserID != userID {
		return nil, ErrNotFound
	}
	return j, nil
}

// ListForUser returns the caller's jobs, newest first.
func (o *Orchestrator) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Job, error) {
	return o.jobs.ListByUser(ctx, userID)
}

// Candidates returns the ranked candidates for the caller's job.
func (o *Orchestrator) Candidates(ctx context.Context, userID, jobID uuid.UUID) ([]*candidate.Summary, error) {
	if _, err := o.Status(ctx, userID, jobID); err != nil {
		return nil, err
	}
	return o.candidates.ListByJob(ctx, jobID)
}

// Shortlisted returns the caller's shortlisted candidates for a job.
func (o *Orchestrator) Shortlisted(ctx context.Context, userID, jobID uuid.UUID) ([]*candidate.Summary, error) {
	if _, err := o.Status(ctx, userID, jobID); err != nil {
		return nil, err
	}
	return o.candidates.ListShortlisted(ctx, jobID)
}

// Usage returns the caller's aggregate usage totals.
func (o *Orchestrator) Usage(ctx context.Context, userID uuid.UUID) (*stats.Usage, error) {
	return o.usage.Get(ctx, userID)
}
