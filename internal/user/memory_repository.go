package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory user repository.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[uuid.UUID]*User)}
}

func (r *MemoryRepository) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return nil, ErrDuplicateEmail
		}
		if u.Username == username {
			return nil, ErrDuplicateUsername
		}
	}

	u := &User{
		ID:                 uuid.New(),
		Username:           username,
		Email:              email,
		PasswordHash:       passwordHash,
		Verified:           true,
		FreeTrialRemaining: DefaultFreeTrialCredits,
		PaidCredits:        0,
		CreatedAt:          time.Now(),
	}
	r.users[u.ID] = u

	clone := *u
	return &clone, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *MemoryRepository) UpdateBalances(ctx context.Context, id uuid.UUID, freeTrialRemaining, paidCredits int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	if freeTrialRemaining < 0 {
		freeTrialRemaining = 0
	}
	if paidCredits < 0 {
		paidCredits = 0
	}
	u.FreeTrialRemaining = freeTrialRemaining
	u.PaidCredits = paidCredits
	return nil
}
