package stats

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulateCreatesRecordLazily(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	userID := uuid.New()

	// Unknown users read as zeroed aggregates.
	usage, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.TotalJobs)
	assert.Equal(t, 0.0, usage.TotalCost)

	require.NoError(t, repo.Accumulate(ctx, userID, 1, 5, 1250, 2.50))

	usage, err = repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.TotalJobs)
	assert.Equal(t, 5, usage.TotalCandidates)
	assert.Equal(t, 1250, usage.TotalTokensUsed)
	assert.InDelta(t, 2.50, usage.TotalCost, 0.001)
}

func TestAccumulateTotalsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Accumulate(ctx, userID, 1, 5, 1250, 2.50))
	}

	usage, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, usage.TotalJobs)
	assert.Equal(t, 15, usage.TotalCandidates)
	assert.Equal(t, 3750, usage.TotalTokensUsed)
	assert.InDelta(t, 7.50, usage.TotalCost, 0.001)
}
