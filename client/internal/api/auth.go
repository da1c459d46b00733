package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/moodbuddy/moodbuddy/client/internal/types"
	"github.com/moodbuddy/moodbuddy/internal/errors"
)

// Login exchanges email and password for a bearer token.
func Login(ctx context.Context, rc *resty.Client, req types.LoginRequest) (*types.AuthResponse, error) {
	return authCall(ctx, rc, call{op: "login", method: http.MethodPost, path: "/auth/login", body: req}, true)
}

// Register creates an account and returns its bearer token.
func Register(ctx context.Context, rc *resty.Client, req types.RegisterRequest) (*types.AuthResponse, error) {
	return authCall(ctx, rc, call{op: "register", method: http.MethodPost, path: "/auth/register", body: req}, true)
}

// Me confirms the identity behind the current bearer token.
func Me(ctx context.Context, rc *resty.Client) (*types.User, error) {
	ar, err := authCall(ctx, rc, call{op: "me", method: http.MethodGet, path: "/auth/me"}, false)
	if err != nil {
		return nil, err
	}
	return &ar.User, nil
}

// UpdateProfile changes account fields and returns the updated account.
func UpdateProfile(ctx context.Context, rc *resty.Client, u types.ProfileUpdate) (*types.User, error) {
	if err := types.ValidateProfileUpdate(u); err != nil {
		return nil, err
	}
	ar, err := authCall(ctx, rc, call{op: "update profile", method: http.MethodPut, path: "/auth/profile", body: u}, false)
	if err != nil {
		return nil, err
	}
	return &ar.User, nil
}

// ChangePassword replaces the account password. The session token stays
// valid.
func ChangePassword(ctx context.Context, rc *resty.Client, p types.PasswordChange) error {
	if err := types.ValidatePasswordChange(p); err != nil {
		return err
	}
	c := call{op: "change password", method: http.MethodPut, path: "/auth/change-password", body: p}
	status, raw, err := execute(ctx, rc, c)
	if err != nil {
		return err
	}
	return decodeData(c.op, status, raw, nil)
}

func authCall(ctx context.Context, rc *resty.Client, c call, wantToken bool) (*types.AuthResponse, error) {
	status, raw, err := execute(ctx, rc, c)
	if err != nil {
		return nil, err
	}
	var ar types.AuthResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return nil, wrap(c.op, status, errors.NewDecodeError(c.op, status, err))
	}
	if !ar.Success {
		return nil, &types.SyncError{Op: c.op, StatusCode: status, Message: ar.Message}
	}
	if wantToken && ar.Token == "" {
		return nil, &types.SyncError{Op: c.op, StatusCode: status, Message: "response carried no token"}
	}
	return &ar, nil
}
