package verification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryIssueAndClaim(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(NewMemoryStore())

	code, err := registry.Issue(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	record, err := registry.Claim(ctx, "a@x.com", code)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", record.Email)
	assert.Equal(t, code, record.Code)
	assert.WithinDuration(t, time.Now().Add(CodeTTL), record.ExpiresAt, 5*time.Second)
}

func TestRegistryClaimUnknownPair(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(NewMemoryStore())

	code, err := registry.Issue(ctx, "a@x.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		email string
		code  string
	}{
		{"wrong email", "b@x.com", code},
		{"wrong code", "a@x.com", "000000"},
		{"both wrong", "b@x.com", "999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.Claim(ctx, tt.email, tt.code)
			assert.ErrorIs(t, err, ErrInvalidOrExpired)
		})
	}
}

func TestRegistryClaimExpiredCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	registry := NewRegistry(store)

	// A matching pair whose expiry already passed must be rejected.
	expired := &Code{
		ID:        uuid.New(),
		Email:     "a@x.com",
		Code:      "123456",
		ExpiresAt: time.Now().Add(-time.Second),
		CreatedAt: time.Now().Add(-CodeTTL),
	}
	require.NoError(t, store.Create(ctx, expired))

	_, err := registry.Claim(ctx, "a@x.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestRegistryConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(NewMemoryStore())

	code, err := registry.Issue(ctx, "a@x.com")
	require.NoError(t, err)

	record, err := registry.Claim(ctx, "a@x.com", code)
	require.NoError(t, err)

	require.NoError(t, registry.Consume(ctx, record.ID))

	_, err = registry.Claim(ctx, "a@x.com", code)
	assert.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestRegistryMultipleOutstandingCodes(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(NewMemoryStore())

	first, err := registry.Issue(ctx, "a@x.com")
	require.NoError(t, err)
	second, err := registry.Issue(ctx, "a@x.com")
	require.NoError(t, err)

	// Both codes stay claimable until their individual expiries.
	firstRecord, err := registry.Claim(ctx, "a@x.com", first)
	require.NoError(t, err)
	secondRecord, err := registry.Claim(ctx, "a@x.com", second)
	require.NoError(t, err)

	// Consuming one leaves the other claimable.
	require.NoError(t, registry.Consume(ctx, firstRecord.ID))

	if first != second {
		_, err = registry.Claim(ctx, "a@x.com", first)
		assert.ErrorIs(t, err, ErrInvalidOrExpired)
	}

	got, err := registry.Claim(ctx, "a@x.com", second)
	require.NoError(t, err)
	assert.Equal(t, secondRecord.ID, got.ID)
}
