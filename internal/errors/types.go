// Package errors classifies remote-call failures so the background executor
// and the sync adapter agree on what may be retried and what ends a session.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory determines how a failed remote call is treated.
type ErrorCategory int

const (
	// Recoverable failures may succeed if the user tries again.
	// Examples: 500 Internal Server Error, connection refused, timeouts.
	Recoverable ErrorCategory = iota

	// Irrecoverable failures are client faults that repeat verbatim.
	// Examples: 400 Bad Request, 404 Not Found, 422.
	Irrecoverable

	// Unauthorized failures invalidate the current session (HTTP 401).
	Unauthorized
)

// String returns a human-readable representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	case Unauthorized:
		return "Unauthorized"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ClassifiedError wraps an error with categorization metadata.
type ClassifiedError struct {
	Category   ErrorCategory
	StatusCode int    // HTTP status code (0 for network and decode failures)
	Message    string // server supplied "message" field, if any
	Underlying error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] HTTP %d: %v", e.Category, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("[%s] %v", e.Category, e.Underlying)
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *ClassifiedError) Unwrap() error {
	return e.Underlying
}

// IsIrrecoverable reports whether err must not be retried. Unauthorized
// failures are never retried either.
func IsIrrecoverable(err error) bool {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.Category == Irrecoverable || ce.Category == Unauthorized
	}
	return false
}

// IsUnauthorized reports whether err carries an HTTP 401 classification.
func IsUnauthorized(err error) bool {
	var ce *ClassifiedError
	return stderrors.As(err, &ce) && ce.Category == Unauthorized
}
