package types

import (
	"errors"
	"fmt"
)

// ValidationError is detected on the client before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped errors).
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports that an id is absent from the local cache.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("entry %s not found in cache", e.ID)
}

// IsNotFoundError checks if err is a NotFoundError.
func IsNotFoundError(err error) bool {
	var ne NotFoundError
	return errors.As(err, &ne)
}

// SyncError reports a failed remote call: network fault, non-2xx status or a
// malformed response. Message is the service's human-readable message when
// one was returned.
type SyncError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *SyncError) Error() string {
	switch {
	case e.Message != "" && e.StatusCode > 0:
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": sync failed"
	}
}

func (e *SyncError) Unwrap() error { return e.Err }

// IsSyncError checks if err is (or wraps) a SyncError. AuthErrors count.
func IsSyncError(err error) bool {
	var se *SyncError
	return errors.As(err, &se)
}

// AuthError reports that the service rejected the session's credentials.
// It unwraps to its SyncError, so callers that only handle sync failures
// treat it as one.
type AuthError struct {
	Sync *SyncError
}

func (e *AuthError) Error() string { return "unauthorized: " + e.Sync.Error() }

func (e *AuthError) Unwrap() error { return e.Sync }

// IsAuthError checks if err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// UserMessage returns the text a UI should show for err: the service's
// message when present, otherwise fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var se *SyncError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
