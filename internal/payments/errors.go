package payments

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation: the provider or the client rejected the amount, currency or
	// method. The customer may retry with different input.
	ErrValidation = errors.New("payment rejected")
	// ErrTransient: the provider is unreachable or failing; retry with backoff.
	ErrTransient = errors.New("payment provider unavailable")
	// ErrIntegrity: an inbound provider payload failed signature verification.
	ErrIntegrity = errors.New("payload failed verification")
	// ErrRejected: the intent exists but is in a state that forbids the call.
	ErrRejected = errors.New("payment intent state forbids operation")
	ErrNotFound = errors.New("payment intent not found")
	ErrTimeout  = errors.New("payment status polling timed out")
)

// TimeoutError is returned when polling stops at its deadline. Last holds the
// most recent state seen, which callers should still show.
type TimeoutError struct {
	IntentID string
	Last     *Intent
	Elapsed  time.Duration
	Attempts int
	Cause    error
}

func (e *TimeoutError) Error() string {
	status := "unknown"
	if e.Last != nil {
		status = string(e.Last.Status)
	}
	return fmt.Sprintf("payments: polling %s timed out after %s (%d attempts, last status %s)", e.IntentID, e.Elapsed, e.Attempts, status)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
