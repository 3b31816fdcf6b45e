package errors

import (
	"errors"
	"fmt"
	"time"
)

// Domain error kinds surfaced by the engine. Handlers map these to HTTP
// status codes via HTTPStatus; everything else is treated as internal.
var (
	// ErrNotFound marks a missing profile or settings row.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation marks a client mistake such as a self-swipe or a
	// malformed interaction type. Never retried.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrQuotaExceeded marks an exhausted rate quota.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrConflict marks a unique-constraint violation that escaped the
	// insert-or-ignore path. Callers treat it as "already exists".
	ErrConflict = errors.New("conflict")
)

// NotFound wraps ErrNotFound with context.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// InvalidOperation wraps ErrInvalidOperation with context.
func InvalidOperation(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInvalidOperation)
}

// QuotaError carries the quota name and when the window resets so the
// handler can surface a retry hint.
type QuotaError struct {
	Quota    string
	ResetsAt time.Time
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota %q exhausted, resets at %s", e.Quota, e.ResetsAt.UTC().Format(time.RFC3339))
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }
