package resend

import "errors"

var (
	// ErrNotConfigured is returned when no API key is set
	ErrNotConfigured = errors.New("email provider is not configured")

	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid email request")

	// ErrUnauthorized is returned when the API key is rejected
	ErrUnauthorized = errors.New("unauthorized: invalid API key")

	// ErrRateLimited is returned on HTTP 429
	ErrRateLimited = errors.New("email provider rate limit exceeded")

	// ErrSendFailed is returned for any other provider or network failure
	ErrSendFailed = errors.New("failed to send email")

	// ErrCircuitOpen is returned while the breaker rejects calls after repeated failures
	ErrCircuitOpen = errors.New("email provider temporarily unavailable")
)
