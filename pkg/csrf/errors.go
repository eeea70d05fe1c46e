package csrf

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCSRF is matched by every token validation failure.
	ErrCSRF = errors.New("csrf.invalid")

	ErrTokenMissing   = errors.New("csrf.token_missing")
	ErrTokenMalformed = errors.New("csrf.token_malformed")
	ErrTokenMismatch  = errors.New("csrf.token_mismatch")

	// ErrRateLimited is matched by *RateLimitedError.
	ErrRateLimited = errors.New("csrf.rate_limited")

	ErrLimiterRequired = errors.New("csrf.limiter_required")
)

// RateLimitedError is returned for clients that exceeded the failure
// threshold. RetryAfter is the remaining length of the window.
type RateLimitedError struct {
	RetryAfter time.Duration
	ResetAt    time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("csrf.rate_limited: retry after %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds is RetryAfter rounded up to whole seconds, at least 1.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	return max(secs, 1)
}

func validationError(reason error) error {
	return errors.Join(ErrCSRF, reason)
}

// Message returns a client-facing description of err. It never includes
// token values.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "Too many invalid CSRF tokens, try again later"
	case errors.Is(err, ErrTokenMissing):
		return "CSRF token missing"
	case errors.Is(err, ErrTokenMalformed):
		return "CSRF token malformed"
	case errors.Is(err, ErrTokenMismatch):
		return "CSRF token invalid"
	default:
		return "CSRF validation failed"
	}
}
