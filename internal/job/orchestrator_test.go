package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsift/talentsift/internal/candidate"
	"github.com/talentsift/talentsift/internal/credits"
	"github.com/talentsift/talentsift/internal/logging"
	"github.com/talentsift/talentsift/internal/scoring"
	"github.com/talentsift/talentsift/internal/stats"
	"github.com/talentsift/talentsift/internal/user"
)

// fakeScorer lets tests script the collaborator's behavior.
type fakeScorer struct {
	result *scoring.Result
	err    error
	block  bool // honor ctx cancellation instead of returning
}

func (f *fakeScorer) Score(ctx context.Context, description string, resumes []scoring.Resume) (*scoring.Result, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func sampleResult() *scoring.Result {
	return &scoring.Result{
		Candidates: []scoring.RankedCandidate{
			{Name: "Sarah Johnson", MatchScore: 94, Status: candidate.StatusShortlisted},
			{Name: "Michael Chen", MatchScore: 89, Status: candidate.StatusShortlisted},
			{Name: "Emily Rodriguez", MatchScore: 78, Status: candidate.StatusUnderReview},
			{Name: "David Park", MatchScore: 65, Status: candidate.StatusUnderReview},
			{Name: "Lisa Thompson", MatchScore: 42, Status: candidate.StatusNotQualified},
		},
		TokensUsed: 1250,
		Cost:       2.50,
	}
}

type fixture struct {
	users      *user.MemoryRepository
	jobs       *MemoryRepository
	candidates *candidate.MemoryRepository
	ledger     *credits.Ledger
	usage      *stats.MemoryRepository
	orch       *Orchestrator
	owner      *user.User
}

func newFixture(t *testing.T, scorer scoring.Scorer, dispatcher Dispatcher) *fixture {
	t.Helper()

	f := &fixture{
		users:      user.NewMemoryRepository(),
		jobs:       NewMemoryRepository(),
		candidates: candidate.NewMemoryRepository(),
		usage:      stats.NewMemoryRepository(),
	}
	f.ledger = credits.NewLedger(f.users)

	owner, err := f.users.Create(context.Background(), "recruiter", "recruiter@x.com", "hash")
	require.NoError(t, err)
	f.owner = owner

	f.orch = NewOrchestrator(
		f.jobs, f.candidates, f.ledger, f.usage,
		scorer, dispatcher, logging.NewLogger(true), time.Second,
	)
	return f
}

func TestSubmitWithoutCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeScorer{result: sampleResult()}, SyncDispatcher{})
	require.NoError(t, f.users.UpdateBalances(ctx, f.owner.ID, 0, 0))

	j, err := f.orch.Submit(ctx, f.owner.ID, "Backend Engineer", "Go services", nil)
	assert.ErrorIs(t, err, credits.ErrInsufficientCredits)
	assert.Nil(t, j)

	// No job record and no ledger mutation.
	jobs, err := f.jobs.ListByUser(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	after, err := f.users.GetByID(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.FreeTrialRemaining)
	assert.Equal(t, 0, after.PaidCredits)
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeScorer{result: sampleResult()}, SyncDispatcher{})

	tests := []struct {
		name        string
		title       string
		description string
		wantErr     error
	}{
		{"missing title", "", "Go services", ErrTitleRequired},
		{"blank title", "   ", "Go services", ErrTitleRequired},
		{"missing description", "Backend Engineer", "", ErrDescriptionRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orch.Submit(ctx, f.owner.ID, tt.title, tt.description, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Validation failures never touch the ledger.
	after, err := f.users.GetByID(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, user.DefaultFreeTrialCredits, after.FreeTrialRemaining)
}

func TestSubmitCompletesAndBills(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeScorer{result: sampleResult()}, SyncDispatcher{})

	j, err := f.orch.Submit(ctx, f.owner.ID, "Backend Engineer", "Go services", nil)
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, StatusQueued, j.Status)

	// The synchronous dispatcher has already run the task.
	got, err := f.orch.Status(ctx, f.owner.ID, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 1250, got.TokensUsed)
	assert.InDelta(t, 2.50, got.Cost, 0.001)

	// Candidates ranked by descending score.
	ranked, err := f.orch.Candidates(ctx, f.owner.ID, j.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 5)
	scores := make([]float64, 0, len(ranked))
	for _, c := range ranked {
		scores = append(scores, c.MatchScore)
	}
	assert.Equal(t, []float64{94, 89, 78, 65, 42}, scores)

	// Exactly one free-trial credit consumed.
	after, err := f.users.GetByID(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, user.DefaultFreeTrialCredits-1, after.FreeTrialRemaining)

	// Usage totals match the job's figures.
	usage, err := f.orch.Usage(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.TotalJobs)
	assert.Equal(t, 5, usage.TotalCandidates)
	assert.Equal(t, 1250, usage.TotalTokensUsed)
	assert.InDelta(t, 2.50, usage.TotalCost, 0.001)
}

func TestSubmitScoringFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeScorer{err: errors.New("model unavailable")}, SyncDispatcher{})

	j, err := f.orch.Submit(ctx, f.owner.ID, "Backend Engineer", "Go services", nil)
	require.NoError(t, err)

	got, err := f.orch.Status(ctx, f.owner.ID, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)

	// No candidates, no ledger decrement, no stats.
	ranked, err := f.orch.Candidates(ctx, f.owner.ID, j.ID)
	require.NoError(t, err)
	assert.Empty(t, ranked)

	after, err := f.users.GetByID(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, user.DefaultFreeTrialCredits, after.FreeTrialRemaining)

	usage, err := f.orch.Usage(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.TotalJobs)

	// The failed attempt did not consume capacity: resubmission is accepted.
	_, err = f.orch.Submit(ctx, f.owner.ID, "Backend Engineer", "Go services", nil)
	assert.NoError(t, err)
}

func TestSubmitScoringTimeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeScorer{block: true}, SyncDispatcher{})

	// Orchestrator timeout is 1s in the fixture; shrink it for the test.
	f.orch.scoringTimeout = 20 * time.Millisecond

	j, err := f.orch.Submit(ctx, f.owner.ID, "Backend Engineer", "Go services", nil)
	require.NoError(t, err)

	got, err := f.orch.Status(ctx, f.owner.ID, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)

	after, err := f.users.GetByID(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, user.DefaultFreeTrialCredits, after.FreeTrialRemaining)
}

func TestStatusOwnershipAndExistence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeScorer{result: sampleResult()}, SyncDispatcher{})

	j, err := f.orch.Submit(ctx, f.owner.ID, "Backend Engineer", "Go services", nil)
	require.NoError(t, err)

	_, err = f.orch.Status(ctx, f.owner.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	// Another user's job reads as missing.
	stranger, err := f.users.Create(ctx, "stranger", "stranger@x.com", "hash")
	require.NoError(t, err)
	_, err = f.orch.Status(ctx, stranger.ID, j.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.orch.Candidates(ctx, stranger.ID, j.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.orch.Shortlisted(ctx, stranger.ID, j.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShortlistedSubset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeScorer{result: sampleResult()}, SyncDispatcher{})

	j, err := f.orch.Submit(ctx, f.owner.ID, "Backend Engineer", "Go services", nil)
	require.NoError(t, err)

	short, err := f.orch.Shortlisted(ctx, f.owner.ID, j.ID)
	require.NoError(t, err)
	require.Len(t, short, 2)
	for _, c := range short {
		assert.Equal(t, candidate.StatusShortlisted, c.Status)
	}
	assert.Equal(t, []float64{94, 89}, []float64{short[0].MatchScore, short[1].MatchScore})
}

func TestSubmitQueueFull(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeScorer{result: sampleResult()}, rejectingDispatcher{})

	j, err := f.orch.Submit(ctx, f.owner.ID, "Backend Engineer", "Go services", nil)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Nil(t, j)

	// The stored job must not linger in queued forever.
	jobs, err := f.jobs.ListByUser(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, StatusFailed, jobs[0].Status)

	// And the reservation was returned.
	ok, err := f.ledger.HasCapacity(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

type rejectingDispatcher struct{}

func (rejectingDispatcher) Dispatch(task Task) error { return ErrQueueFull }

func TestConcurrentSubmissionsRespectBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeScorer{result: sampleResult()}, SyncDispatcher{})

	const balance = 3
	const attempts = 12
	require.NoError(t, f.users.UpdateBalances(ctx, f.owner.ID, balance, 0))

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.orch.Submit(ctx, f.owner.ID, "Backend Engineer", "Go services", nil); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, balance, accepted)

	after, err := f.users.GetByID(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.FreeTrialRemaining)
	assert.Equal(t, 0, after.PaidCredits)
}

func TestPoolRunsTasksAndShutsDown(t *testing.T) {
	pool := NewPool(2, 8, logging.NewLogger(true))

	var mu sync.Mutex
	ran := 0
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		err := pool.Dispatch(func(ctx context.Context) {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
		})
		require.NoError(t, err)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, ran)
}

func TestPoolQueueFull(t *testing.T) {
	pool := NewPool(1, 1, logging.NewLogger(true))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})

	release := make(chan struct{})
	started := make(chan struct{})

	// Occupy the single worker.
	require.NoError(t, pool.Dispatch(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	// Fill the queue slot.
	require.NoError(t, pool.Dispatch(func(ctx context.Context) {}))

	// Next dispatch finds no room.
	err := pool.Dispatch(func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
}
