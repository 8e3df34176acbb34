package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenService defines the interface for token creation and validation.
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// Mailer defines the interface for outbound account emails
type Mailer interface {
	SendVerificationCode(ctx context.Context, toEmail, code string) error
	SendPasswordResetCode(ctx context.Context, toEmail, code string) error
}
