package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/talentsift/talentsift/internal/database"
)

// BunRepository is the postgres-backed user repository.
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

// Create inserts a new user with default credit balances. Users are
// created verified because account creation happens when the signup
// code is claimed.
func (r *BunRepository) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	dbUser := &database.User{
		Username:           username,
		Email:              email,
		PasswordHash:       passwordHash,
		Verified:           true,
		FreeTrialRemaining: DefaultFreeTrialCredits,
		PaidCredits:        0,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			if strings.Contains(err.Error(), "username") {
				return nil, ErrDuplicateUsername
			}
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *BunRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByUsername retrieves a user by username
func (r *BunRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("username = ?", username).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdatePassword updates a user's password hash
func (r *BunRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireRowsAffected(result)
}

// UpdateBalances overwrites both credit balances, clamped at zero.
func (r *BunRepository) UpdateBalances(ctx context.Context, id uuid.UUID, freeTrialRemaining, paidCredits int) error {
	if freeTrialRemaining < 0 {
		freeTrialRemaining = 0
	}
	if paidCredits < 0 {
		paidCredits = 0
	}

	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("free_trial_remaining = ?", freeTrialRemaining).
		Set("paid_credits = ?", paidCredits).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update balances: %w", err)
	}

	return requireRowsAffected(result)
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                 dbu.ID,
		Username:           dbu.Username,
		Email:              dbu.Email,
		PasswordHash:       dbu.PasswordHash,
		Verified:           dbu.Verified,
		FreeTrialRemaining: dbu.FreeTrialRemaining,
		PaidCredits:        dbu.PaidCredits,
		BillingCustomerID:  dbu.BillingCustomerID,
		CreatedAt:          dbu.CreatedAt,
	}
}
