package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.Create(ctx, "alice", "alice@example.com", "hash")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.Verified)
	assert.Equal(t, DefaultFreeTrialCredits, created.FreeTrialRemaining)
	assert.Equal(t, 0, created.PaidCredits)

	tests := []struct {
		name     string
		username string
		email    string
		wantErr  error
	}{
		{"duplicate email", "alice2", "alice@example.com", ErrDuplicateEmail},
		{"duplicate username", "alice", "other@example.com", ErrDuplicateUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(ctx, tt.username, tt.email, "hash")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMemoryRepositoryLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.Create(ctx, "bob", "bob@example.com", "hash")
	require.NoError(t, err)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	byEmail, err := repo.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byUsername, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUsername.ID)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryReturnsClones(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.Create(ctx, "carol", "carol@example.com", "hash")
	require.NoError(t, err)

	// Mutating a returned value must not leak into the store.
	created.FreeTrialRemaining = 999

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultFreeTrialCredits, stored.FreeTrialRemaining)
}

func TestMemoryRepositoryUpdateBalances(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.Create(ctx, "dave", "dave@example.com", "hash")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateBalances(ctx, created.ID, 10, 5))
	u, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, u.FreeTrialRemaining)
	assert.Equal(t, 5, u.PaidCredits)

	// Negative balances clamp at zero.
	require.NoError(t, repo.UpdateBalances(ctx, created.ID, -3, -1))
	u, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, u.FreeTrialRemaining)
	assert.Equal(t, 0, u.PaidCredits)

	assert.ErrorIs(t, repo.UpdateBalances(ctx, uuid.New(), 1, 1), ErrNotFound)
}

func TestMemoryRepositoryUpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.Create(ctx, "erin", "erin@example.com", "old-hash")
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePassword(ctx, created.ID, "new-hash"))
	u, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", u.PasswordHash)
}
