package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/talentsift/talentsift/internal/httputil"
	"github.com/talentsift/talentsift/internal/logging"
	"github.com/talentsift/talentsift/internal/ratelimit"
	"github.com/talentsift/talentsift/internal/user"
	"github.com/talentsift/talentsift/internal/verification"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Email string `json:"email"`
}

// VerifySignupRequest represents the signup completion request body
type VerifySignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	FreeTrialRemaining int       `json:"free_trial_remaining"`
	PaidCredits        int       `json:"paid_credits"`
}

// AuthResponse represents a successful authentication
type AuthResponse struct {
	User   UserResponse `json:"user"`
	Tokens *AuthTokens  `json:"tokens"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		FreeTrialRemaining: u.FreeTrialRemaining,
		PaidCredits:        u.PaidCredits,
	}
}

// Signup handles the first half of registration
// @Summary      Request signup
// @Description  Send a six-digit verification code to the email address. The account is created when the code is verified.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Email address"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request or email format"
// @Failure      409 {object} ErrorResponse "Email already exists"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "signup")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for signup", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	// Check email cooldown
	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown")
		respondError(w, "please wait before requesting another code", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	// Record IP request for rate limiting
	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "signup"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	if err := h.service.RequestSignup(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("signup failed: email already exists")
			respondError(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrEmailRequired), errors.Is(err, ErrInvalidEmailFormat):
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			respondError(w, "failed to start signup", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	// Set email cooldown
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	logger.Info("signup code issued")
	respondJSON(w, map[string]string{
		"message": "verification code sent, please check your inbox",
	}, http.StatusOK)
}

// VerifySignup handles the second half of registration
// @Summary      Complete signup
// @Description  Verify the emailed code and create the account. Returns the new user and an access token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifySignupRequest true "Signup details and verification code"
// @Success      201 {object} AuthResponse
// @Failure      400 {object} ErrorResponse "Invalid request, validation error or bad code"
// @Failure      409 {object} ErrorResponse "Email or username already exists"
// @Router       /auth/signup/verify [post]
func (h *Handler) VerifySignup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "verify")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for signup verification", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req VerifySignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup verification body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "verify"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	newUser, tokens, err := h.service.CompleteSignup(r.Context(), req.Username, req.Email, req.Password, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrInvalidOrExpired):
			logger.Warn("signup verification failed: invalid or expired code")
			respondError(w, "invalid or expired verification code", httputil.CodeInvalidOrExpired, http.StatusBadRequest)
		case errors.Is(err, user.ErrDuplicateEmail):
			respondError(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, user.ErrDuplicateUsername):
			respondError(w, "username already exists", httputil.CodeValidationFailed, http.StatusConflict)
		case errors.Is(err, ErrUsernameRequired), errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrPasswordTooShort):
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("signup verification failed: internal error", "error", err.Error())
			respondError(w, "failed to complete signup", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)
	respondJSON(w, AuthResponse{User: toUserResponse(newUser), Tokens: tokens}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate a user and receive an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      401 {object} ErrorResponse "Invalid credentials"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	// Record IP request for rate limiting
	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	loggedIn, tokens, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrEmailNotVerified) {
			logger.Warn("login failed: email not verified")
			respondError(w, "email not verified, please check your inbox", httputil.CodeEmailNotVerified, http.StatusForbidden)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")
	respondJSON(w, AuthResponse{User: toUserResponse(loggedIn), Tokens: tokens}, http.StatusOK)
}

// Me handles the current-user endpoint
// @Summary      Get current user
// @Description  Return the authenticated user's account, including remaining credits
// @Tags         auth
// @Produce      json
// @Success      200 {object} UserResponse
// @Failure      401 {object} ErrorResponse "Missing or invalid token"
// @Security     BearerAuth
// @Router       /me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load current user", "error", err.Error())
		respondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, toUserResponse(u), http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Send a password reset code to the user's email. Always returns success to prevent email enumeration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	ip := getClientIP(r)

	// Check IP rate limit (10 req/15 min)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		// Continue despite error to avoid blocking legitimate requests
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	// Check email cooldown
	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
		// Continue despite error
	} else if onCooldown {
		logger.Warn("email on cooldown", "email", req.Email)
		respondError(w, "please wait before requesting another reset", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	// Record IP request for rate limiting
	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	// Set email cooldown
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	// Process request (always returns nil for security)
	_ = h.service.RequestPasswordReset(r.Context(), req.Email)

	// Always return success (prevent email enumeration)
	respondJSON(w, map[string]string{
		"message": "If an account exists with that email, a password reset code has been sent.",
	}, http.StatusOK)
}

// ResetPassword handles password reset with a code
// @Summary      Reset password
// @Description  Reset a user's password using the emailed code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Email, reset code and new password"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request, validation error or bad code"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, verification.ErrInvalidOrExpired):
			logger.Warn("password reset failed: invalid or expired code")
			respondError(w, "invalid or expired reset code", httputil.CodeInvalidOrExpired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrPasswordTooShort):
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("password reset failed: internal error", "error", err.Error())
			respondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password reset successfully")
	respondJSON(w, map[string]string{
		"message": "password reset successfully",
	}, http.StatusOK)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (behind proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
