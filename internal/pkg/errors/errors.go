package errors

import "errors"

// Shared application errors
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is returned for malformed submissions. Nothing is
	// persisted and the call must not be retried as-is.
	ErrInvalidInput = errors.New("invalid submission")

	// ErrRateLimitExceeded is returned when a user exceeds the submission
	// cap. Retryable only after the window elapses.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrStorage wraps transient persistence faults. Retrying the whole
	// RecordAttempt call is safe: the first-attempt check is atomic.
	ErrStorage = errors.New("storage failure")
)
