package credits

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/talentsift/talentsift/internal/user"
)

var (
	ErrInsufficientCredits = errors.New("no remaining credits")
)

// Ledger tracks free-trial and paid credit balances and serializes
// credit reservations per user. The reserve/commit/release cycle closes
// the gap between the capacity check at submission time and the decrement
// at completion time: a reservation is counted against capacity
// immediately, so concurrent submissions can never admit more jobs than
// credits allow, and balances never go negative.
type Ledger struct {
	users user.Repository

	mu    sync.Mutex
	locks map[uuid.UUID]*userLock
}

// userLock serializes balance mutations for one user and carries the
// number of credits reserved by jobs that have not finished yet.
type userLock struct {
	mu       sync.Mutex
	reserved int
}

func NewLedger(users user.Repository) *Ledger {
	return &Ledger{
		users: users,
		locks: make(map[uuid.UUID]*userLock),
	}
}

// lockFor returns the lock for a user, creating it on first use.
// Per-user locks keep unrelated users from contending with each other.
func (l *Ledger) lockFor(userID uuid.UUID) *userLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[userID]
	if !ok {
		lock = &userLock{}
		l.locks[userID] = lock
	}
	return lock
}

// HasCapacity reports whether the user has at least one unreserved credit.
func (l *Ledger) HasCapacity(ctx context.Context, userID uuid.UUID) (bool, error) {
	lock := l.lockFor(userID)
	lock.mu.Lock()
	defer lock.mu.Unlock()

	available, err := l.available(ctx, userID, lock)
	if err != nil {
		return false, err
	}
	return available > 0, nil
}

// Reserve atomically claims one credit for a job about to be submitted.
// It fails with ErrInsufficientCredits when no unreserved credit remains.
// Every successful Reserve must be paired with exactly one Commit or
// Release.
func (l *Ledger) Reserve(ctx context.Context, userID uuid.UUID) error {
	lock := l.lockFor(userID)
	lock.mu.Lock()
	defer lock.mu.Unlock()

	available, err := l.available(ctx, userID, lock)
	if err != nil {
		return err
	}
	if available <= 0 {
		return ErrInsufficientCredits
	}

	lock.reserved++
	return nil
}

// Commit settles a reservation after a job completed: the reservation is
// dropped and the balance decremented exactly once. Free-trial credits are
// spent first; a paid credit is consumed only when the trial is exhausted.
// Decrementing with both balances at zero is a no-op, never an error.
func (l *Ledger) Commit(ctx context.Context, userID uuid.UUID) error {
	lock := l.lockFor(userID)
	lock.mu.Lock()
	defer lock.mu.Unlock()

	if lock.reserved > 0 {
		lock.reserved--
	}

	u, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load balances: %w", err)
	}

	free, paid := u.FreeTrialRemaining, u.PaidCredits
	switch {
	case free > 0:
		free--
	case paid > 0:
		paid--
	}

	if err := l.users.UpdateBalances(ctx, userID, free, paid); err != nil {
		return fmt.Errorf("failed to update balances: %w", err)
	}

	return nil
}

// Release drops a reservation without touching the balance. Used when the
// reserved job failed and no credit should be consumed.
func (l *Ledger) Release(ctx context.Context, userID uuid.UUID) {
	lock := l.lockFor(userID)
	lock.mu.Lock()
	defer lock.mu.Unlock()

	if lock.reserved > 0 {
		lock.reserved--
	}
}

// available must be called with the user's lock held.
func (l *Ledger) available(ctx context.Context, userID uuid.UUID, lock *userLock) (int, error) {
	u, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load balances: %w", err)
	}
	return u.FreeTrialRemaining + u.PaidCredits - lock.reserved, nil
}
