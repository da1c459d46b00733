// Package api holds one function per endpoint of the remote mood service.
// Every function maps transport failures, non-2xx statuses and malformed
// bodies to *types.SyncError, and 401 responses to *types.AuthError.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/moodbuddy/moodbuddy/client/internal/types"
	"github.com/moodbuddy/moodbuddy/internal/errors"
)

// RequestIDHeader is set on every request so service logs can be correlated
// with client debug output.
const RequestIDHeader = "X-Request-ID"

// call describes one request against the service.
type call struct {
	op     string
	method string
	path   string
	query  map[string]string
	body   any
}

// execute performs c and returns the raw body of a 2xx response.
func execute(ctx context.Context, rc *resty.Client, c call) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, &types.SyncError{Op: c.op, Err: err}
	}
	req := rc.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, uuid.NewString()).
		SetHeader("Accept", "application/json")
	if len(c.query) > 0 {
		req.SetQueryParams(c.query)
	}
	if c.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(c.body)
	}

	resp, err := req.Execute(c.method, c.path)
	if err != nil {
		return 0, nil, wrap(c.op, 0, errors.NewNetworkError(c.op, err))
	}
	status := resp.StatusCode()
	raw := resp.Body()
	if status < 200 || status > 299 {
		var env types.Envelope
		_ = json.Unmarshal(raw, &env)
		return status, nil, wrap(c.op, status, errors.NewHTTPError(status, env.Message, c.op))
	}
	return status, raw, nil
}

// decodeData unwraps the {"success","data","message"} envelope into out.
// A nil out only checks the success flag.
func decodeData(op string, status int, raw []byte, out any) error {
	var env types.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return wrap(op, status, errors.NewDecodeError(op, status, err))
	}
	if !env.Success {
		msg := env.Message
		ce := errors.ClassifyHTTPError(http.StatusUnprocessableEntity, msg, fmt.Errorf("%s: service reported failure", op))
		return &types.SyncError{Op: op, StatusCode: status, Message: msg, Err: ce}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return wrap(op, status, errors.NewDecodeError(op, status, err))
	}
	return nil
}

// wrap converts a classified failure into the public taxonomy.
func wrap(op string, status int, ce *errors.ClassifiedError) error {
	se := &types.SyncError{Op: op, StatusCode: status, Message: ce.Message, Err: ce}
	if ce.Category == errors.Unauthorized {
		return &types.AuthError{Sync: se}
	}
	return se
}
