package httputil

// Machine-readable error codes returned alongside error messages so that
// clients can branch without parsing human-facing text.
const (
	CodeInvalidRequestBody  = "invalid_request_body"
	CodeInternalError       = "internal_error"
	CodeTooManyRequests     = "too_many_requests"
	CodeCooldownActive      = "cooldown_active"
	CodeEmailAlreadyExists  = "email_already_exists"
	CodeValidationFailed    = "validation_failed"
	CodeInvalidCredentials  = "invalid_credentials"
	CodeEmailNotVerified    = "email_not_verified"
	CodeInvalidOrExpired    = "invalid_or_expired_code"
	CodeInsufficientCredits = "insufficient_credits"
	CodeNotFound            = "not_found"
	CodeMissingAuth         = "missing_authentication"
	CodeInvalidAuthHeader   = "invalid_authorization_header"
	CodeInvalidToken        = "invalid_token"
	CodeTokenExpired        = "token_expired"
	CodeInvalidTokenUserID  = "invalid_token_user_id"
)
