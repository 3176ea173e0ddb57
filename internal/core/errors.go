package core

import "time"

// Error codes for domain errors.
const (
	ErrCodeNotAuthenticated = "not_authenticated"
	ErrCodeOutOfBounds      = "out_of_bounds"
	ErrCodeBadColor         = "bad_color"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInvalidToken     = "invalid_token"
	ErrCodeConfigError      = "config_error"
)

// CoreError wraps a code and human-readable message.
// RetryAfter is set for rate-limit rejections.
type CoreError struct {
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
