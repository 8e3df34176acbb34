package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/talentsift/talentsift/internal/logging"
	"github.com/talentsift/talentsift/internal/user"
	"github.com/talentsift/talentsift/internal/verification"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrEmailNotVerified   = errors.New("email not verified, please check your inbox")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// Argon2id parameters - tuned for security vs performance balance
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// AuthTokens represents the credentials returned to an authenticated client
type AuthTokens struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service handles authentication business logic
type Service struct {
	userRepo            user.Repository
	registry            *verification.Registry
	tokenService        TokenService
	mailer              Mailer
	logger              *logging.Logger
	accessTokenDuration time.Duration
}

func NewService(
	userRepo user.Repository,
	registry *verification.Registry,
	tokenService TokenService,
	mailer Mailer,
	logger *logging.Logger,
	accessTokenDuration time.Duration,
) *Service {
	return &Service{
		userRepo:            userRepo,
		registry:            registry,
		tokenService:        tokenService,
		mailer:              mailer,
		logger:              logger,
		accessTokenDuration: accessTokenDuration,
	}
}

// RequestSignup validates the email, issues a short-lived verification code
// and sends it. The account itself is not created until the code is claimed.
func (s *Service) RequestSignup(ctx context.Context, email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > 254 {
		return ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}

	// Reject addresses that already belong to an account
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("failed to check existing email: %w", err)
	}

	code, err := s.registry.Issue(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to issue verification code: %w", err)
	}

	// Send verification email in a goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.mailer.SendVerificationCode(emailCtx, email, code); err != nil {
			s.logger.Warn("failed to send verification email", "email", email, "error", err)
		}
	}()

	return nil
}

// CompleteSignup claims a verification code and creates the account. The code
// is consumed only after the account exists, so a failed create leaves it
// claimable again.
func (s *Service) CompleteSignup(ctx context.Context, username, email, password, code string) (*user.User, *AuthTokens, error) {
	if strings.TrimSpace(username) == "" {
		return nil, nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, nil, ErrPasswordRequired
	}
	if len(password) < 8 {
		return nil, nil, ErrPasswordTooShort
	}

	record, err := s.registry.Claim(ctx, email, code)
	if err != nil {
		return nil, nil, err
	}

	passwordHash, err := s.hashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, username, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) || errors.Is(err, user.ErrDuplicateUsername) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.registry.Consume(ctx, record.ID); err != nil {
		s.logger.Warn("failed to consume verification code", "email", email, "error", err)
	}

	tokens, err := s.generateTokens(newUser.ID, newUser.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return newUser, tokens, nil
}

// Login authenticates a user and returns an access token
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, *AuthTokens, error) {
	if email == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.verifyPassword(existingUser.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	if !existingUser.Verified {
		return nil, nil, ErrEmailNotVerified
	}

	tokens, err := s.generateTokens(existingUser.ID, existingUser.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return existingUser, tokens, nil
}

// GetUser returns the account for an authenticated user ID
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// RequestPasswordReset issues a reset code for the account's email.
// Always returns nil to prevent email enumeration attacks
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Don't reveal if user exists
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for password reset", "error", err)
		return nil
	}

	code, err := s.registry.Issue(ctx, existingUser.Email)
	if err != nil {
		s.logger.Warn("failed to issue password reset code", "error", err)
		return nil
	}

	// Send password reset email in goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.mailer.SendPasswordResetCode(emailCtx, existingUser.Email, code); err != nil {
			s.logger.Warn("failed to send password reset email", "email", email, "error", err)
		}
	}()

	return nil
}

// ResetPassword resets a user's password using a valid reset code
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	record, err := s.registry.Claim(ctx, email, code)
	if err != nil {
		return err
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return verification.ErrInvalidOrExpired
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, existingUser.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.registry.Consume(ctx, record.ID); err != nil {
		s.logger.Warn("failed to consume password reset code", "error", err)
	}

	return nil
}

// generateTokens creates the access token
func (s *Service) generateTokens(userID uuid.UUID, email string) (*AuthTokens, error) {
	accessToken, err := s.tokenService.CreateToken(userID, email, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &AuthTokens{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTokenDuration.Seconds()),
	}, nil
}

// hashPassword creates an argon2id hash of the password
func (s *Service) hashPassword(password string) (string, error) {
	// Generate random salt
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	// Hash password with argon2id
	hash := argon2.IDKey(
		[]byte(password),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	// Encode as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		encodedSalt,
		encodedHash,
	), nil
}

// verifyPassword checks if a password matches the stored hash
func (s *Service) verifyPassword(encodedHash, password string) bool {
	// Parse the encoded hash
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	// Parse parameters
	var version int
	var memory, time uint32
	var threads uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads)
	if err != nil {
		return false
	}
	_, err = fmt.Sscanf(parts[2], "v=%d", &version)
	if err != nil {
		return false
	}

	// Decode salt and hash
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	// Hash the input password with the same parameters
	inputHash := argon2.IDKey(
		[]byte(password),
		salt,
		time,
		memory,
		threads,
		uint32(len(decodedHash)),
	)

	// Compare hashes using constant-time comparison
	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1
}
