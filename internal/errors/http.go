package errors

import (
	"fmt"
	"net/http"
)

// ClassifyHTTPError builds a ClassifiedError for a non-2xx response.
//   - 401 ends the session
//   - 408 and 429 are worth another attempt
//   - other 4xx are client faults
//   - 5xx and anything unexpected are treated as transient
func ClassifyHTTPError(statusCode int, message string, underlyingErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:   getHTTPErrorCategory(statusCode),
		StatusCode: statusCode,
		Message:    message,
		Underlying: underlyingErr,
	}
}

func getHTTPErrorCategory(statusCode int) ErrorCategory {
	switch {
	case statusCode == http.StatusUnauthorized:
		return Unauthorized
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusTooManyRequests:
		return Recoverable
	case statusCode >= 400 && statusCode < 500:
		return Irrecoverable
	default:
		return Recoverable
	}
}

// NewHTTPError creates a classified error for an HTTP failure of operation.
func NewHTTPError(statusCode int, message string, operation string) *ClassifiedError {
	underlyingErr := fmt.Errorf("%s failed: HTTP %d", operation, statusCode)
	if message != "" {
		underlyingErr = fmt.Errorf("%s failed: HTTP %d: %s", operation, statusCode, message)
	}
	return ClassifyHTTPError(statusCode, message, underlyingErr)
}

// NewNetworkError creates a classified error for a transport-level failure.
func NewNetworkError(operation string, err error) *ClassifiedError {
	return &ClassifiedError{
		Category:   Recoverable,
		Underlying: fmt.Errorf("%s network error: %w", operation, err),
	}
}

// NewDecodeError creates a classified error for a response body that could
// not be understood. Retrying the same request yields the same body.
func NewDecodeError(operation string, statusCode int, err error) *ClassifiedError {
	return &ClassifiedError{
		Category:   Irrecoverable,
		StatusCode: statusCode,
		Underlying: fmt.Errorf("%s malformed response: %w", operation, err),
	}
}
