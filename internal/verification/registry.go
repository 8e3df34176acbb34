package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Registry issues and claims one-time email verification codes.
// Issuing does not send the code anywhere; callers hand it to a mailer.
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Issue generates a uniformly random 6-digit code for the email and
// stores it with a 10-minute expiry. Previously issued codes for the
// same email stay claimable until they expire.
func (r *Registry) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	now := time.Now()
	record := &Code{
		ID:        uuid.New(),
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(CodeTTL),
		CreatedAt: now,
	}

	if err := r.store.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}

	return code, nil
}

// Claim validates an (email, code) pair. It returns ErrInvalidOrExpired
// when the pair is unknown or past its expiry. Claim does not consume the
// code; call Consume after the claimed action succeeded.
func (r *Registry) Claim(ctx context.Context, email, code string) (*Code, error) {
	record, err := r.store.Find(ctx, email, code)
	if err != nil {
		return nil, err
	}

	if !time.Now().Before(record.ExpiresAt) {
		return nil, ErrInvalidOrExpired
	}

	return record, nil
}

// Consume deletes a claimed code so it cannot be claimed again.
func (r *Registry) Consume(ctx context.Context, id uuid.UUID) error {
	return r.store.Delete(ctx, id)
}

// generateCode returns a uniformly random 6-digit decimal code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
