package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

// Repository handles user persistence. Implementations must reject
// duplicate emails and usernames with the sentinel errors above.
type Repository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// UpdateBalances overwrites both credit balances. Callers are expected
	// to serialize read-modify-write cycles per user; the credits ledger
	// does this behind its per-user locks.
	UpdateBalances(ctx context.Context, id uuid.UUID, freeTrialRemaining, paidCredits int) error
}
