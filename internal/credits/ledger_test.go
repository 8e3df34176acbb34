package credits

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsift/talentsift/internal/user"
)

func newTestUser(t *testing.T, repo *user.MemoryRepository, free, paid int) *user.User {
	t.Helper()
	u, err := repo.Create(context.Background(), uuid.NewString()[:8], uuid.NewString()[:8]+"@x.com", "hash")
	require.NoError(t, err)
	require.NoError(t, repo.UpdateBalances(context.Background(), u.ID, free, paid))
	u.FreeTrialRemaining = free
	u.PaidCredits = paid
	return u
}

func TestLedgerHasCapacity(t *testing.T) {
	ctx := context.Background()
	repo := user.NewMemoryRepository()
	ledger := NewLedger(repo)

	tests := []struct {
		name string
		free int
		paid int
		want bool
	}{
		{"free trial only", 3, 0, true},
		{"paid only", 0, 2, true},
		{"both", 1, 1, true},
		{"exhausted", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUser(t, repo, tt.free, tt.paid)
			got, err := ledger.HasCapacity(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLedgerReserveWithoutCapacity(t *testing.T) {
	ctx := context.Background()
	repo := user.NewMemoryRepository()
	ledger := NewLedger(repo)
	u := newTestUser(t, repo, 0, 0)

	err := ledger.Reserve(ctx, u.ID)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	// No balance mutation on a failed reserve.
	after, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.FreeTrialRemaining)
	assert.Equal(t, 0, after.PaidCredits)
}

func TestLedgerReservationsCountAgainstCapacity(t *testing.T) {
	ctx := context.Background()
	repo := user.NewMemoryRepository()
	ledger := NewLedger(repo)
	u := newTestUser(t, repo, 2, 0)

	require.NoError(t, ledger.Reserve(ctx, u.ID))
	require.NoError(t, ledger.Reserve(ctx, u.ID))

	// Both credits reserved by in-flight jobs: a third submission must fail
	// even though the stored balance is still 2.
	err := ledger.Reserve(ctx, u.ID)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	ok, err := ledger.HasCapacity(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLedgerCommitSpendsFreeTrialFirst(t *testing.T) {
	ctx := context.Background()
	repo := user.NewMemoryRepository()
	ledger := NewLedger(repo)
	u := newTestUser(t, repo, 1, 1)

	require.NoError(t, ledger.Reserve(ctx, u.ID))
	require.NoError(t, ledger.Commit(ctx, u.ID))

	after, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.FreeTrialRemaining)
	assert.Equal(t, 1, after.PaidCredits)

	require.NoError(t, ledger.Reserve(ctx, u.ID))
	require.NoError(t, ledger.Commit(ctx, u.ID))

	after, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.FreeTrialRemaining)
	assert.Equal(t, 0, after.PaidCredits)
}

func TestLedgerCommitAtZeroIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo := user.NewMemoryRepository()
	ledger := NewLedger(repo)
	u := newTestUser(t, repo, 0, 0)

	// Decrementing at zero never drives a balance negative.
	require.NoError(t, ledger.Commit(ctx, u.ID))

	after, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after.FreeTrialRemaining, 0)
	assert.GreaterOrEqual(t, after.PaidCredits, 0)
}

func TestLedgerReleaseRestoresCapacity(t *testing.T) {
	ctx := context.Background()
	repo := user.NewMemoryRepository()
	ledger := NewLedger(repo)
	u := newTestUser(t, repo, 1, 0)

	require.NoError(t, ledger.Reserve(ctx, u.ID))
	err := ledger.Reserve(ctx, u.ID)
	require.ErrorIs(t, err, ErrInsufficientCredits)

	ledger.Release(ctx, u.ID)

	// The failed job did not consume the credit.
	require.NoError(t, ledger.Reserve(ctx, u.ID))
	after, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.FreeTrialRemaining)
}

func TestLedgerConcurrentReservesNeverOversell(t *testing.T) {
	ctx := context.Background()
	repo := user.NewMemoryRepository()
	ledger := NewLedger(repo)

	const balance = 5
	const attempts = 50
	u := newTestUser(t, repo, balance, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ledger.Reserve(ctx, u.ID); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, balance, granted)

	// Committing every granted reservation lands exactly at zero.
	for i := 0; i < granted; i++ {
		require.NoError(t, ledger.Commit(ctx, u.ID))
	}

	after, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.FreeTrialRemaining)
	assert.Equal(t, 0, after.PaidCredits)
}
