package client

import "github.com/moodbuddy/moodbuddy/client/internal/types"

// Error taxonomy re-exported so callers compare against a single set of types.
type (
	ValidationError = types.ValidationError
	NotFoundError   = types.NotFoundError
	SyncError       = types.SyncError
	AuthError       = types.AuthError
)

var (
	NewValidationError = types.NewValidationError
	IsValidationError  = types.IsValidationError
	IsNotFoundError    = types.IsNotFoundError
	IsSyncError        = types.IsSyncError
	IsAuthError        = types.IsAuthError
	UserMessage        = types.UserMessage
)
