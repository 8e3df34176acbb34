package verification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CodeTTL is how long an issued code stays claimable.
const CodeTTL = 10 * time.Minute

var (
	// ErrInvalidOrExpired covers both unknown (email, code) pairs and
	// codes past their expiry. Callers must not be able to distinguish
	// the two cases.
	ErrInvalidOrExpired = errors.New("invalid or expired verification code")
)

// Code is a one-time 6-digit code proving control of an email address.
type Code struct {
	ID        uuid.UUID
	Email     string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}
