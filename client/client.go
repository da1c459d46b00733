// Package client is the Go SDK for the remote mood-tracking service. It is the
// only component that talks to the network: the state layer drives it and
// turns its results into cache mutations.
package client

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/moodbuddy/moodbuddy/client/internal/api"
	"github.com/moodbuddy/moodbuddy/client/internal/types"
)

// Client talks to the mood service on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	rest    *resty.Client
	creds   *Credentials
	bearer  *bearerTransport

	closedOnce uint32
}

// New constructs a Client for baseURL, which must include the API prefix
// (e.g. "https://host/api"). Additional options can be provided via
// functional arguments.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		panic("baseURL cannot be empty")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}
	if c.creds == nil {
		c.creds = NewCredentials("")
	}

	c.wrapTransportWithBearer()
	c.rest = resty.NewWithClient(c.http).SetBaseURL(c.baseURL)
	return c
}

// wrapTransportWithBearer installs the bearer/401 interceptor as the
// outermost transport.
func (c *Client) wrapTransportWithBearer() {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.bearer = &bearerTransport{base: base, creds: c.creds}
	c.http.Transport = c.bearer
}

// Credentials returns the token holder shared with the session owner.
func (c *Client) Credentials() *Credentials { return c.creds }

// SetUnauthorizedHandler registers fn to run whenever the service answers
// 401. The credential is already cleared when fn runs. Passing nil removes
// the handler.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	if fn == nil {
		c.bearer.onUnauthorized.Store(nil)
		return
	}
	c.bearer.onUnauthorized.Store(&fn)
}

// Close releases idle connections. Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	c.http.CloseIdleConnections()
	return nil
}

// --------------------------------------------------------------------
// Auth operations
// --------------------------------------------------------------------

// Login exchanges email and password for a token. The token is returned, not
// stored: the session owner sets it on Credentials once it accepts the login.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	ar, err := api.Login(ctx, c.rest, types.LoginRequest{Email: email, Password: password})
	if err = observe("login", err); err != nil {
		return nil, err
	}
	return ar, nil
}

// Register creates an account and returns its token without storing it.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	ar, err := api.Register(ctx, c.rest, req)
	if err = observe("register", err); err != nil {
		return nil, err
	}
	return ar, nil
}

// UpdateProfile changes account fields and returns the updated account.
func (c *Client) UpdateProfile(ctx context.Context, u ProfileUpdate) (*User, error) {
	user, err := api.UpdateProfile(ctx, c.rest, u)
	return user, observe("update_profile", err)
}

// ChangePassword replaces the account password.
func (c *Client) ChangePassword(ctx context.Context, p PasswordChange) error {
	return observe("change_password", api.ChangePassword(ctx, c.rest, p))
}

// Me confirms the identity behind the held token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	u, err := api.Me(ctx, c.rest)
	return u, observe("me", err)
}

// --------------------------------------------------------------------
// Entry operations
// --------------------------------------------------------------------

// ListEntries returns the entries matching filter, newest first.
func (c *Client) ListEntries(ctx context.Context, filter EntryFilter) ([]MoodEntry, error) {
	entries, err := api.ListEntries(ctx, c.rest, filter)
	return entries, observe("list_entries", err)
}

// GetEntry fetches one entry by id.
func (c *Client) GetEntry(ctx context.Context, id string) (*MoodEntry, error) {
	e, err := api.GetEntry(ctx, c.rest, id)
	return e, observe("get_entry", err)
}

// TodayEntry asks the service for today's entry; nil when there is none.
func (c *Client) TodayEntry(ctx context.Context) (*MoodEntry, error) {
	e, err := api.TodayEntry(ctx, c.rest)
	return e, observe("today_entry", err)
}

// CreateEntry validates draft and posts it. A draft without a mood fails
// with a ValidationError before any request is sent.
func (c *Client) CreateEntry(ctx context.Context, draft EntryDraft) (*CreatedEntry, error) {
	d, err := types.ValidateDraft(draft)
	if err != nil {
		return nil, observe("create_entry", err)
	}
	e, err := api.CreateEntry(ctx, c.rest, d)
	return e, observe("create_entry", err)
}

// UpdateEntry validates patch and sends it for id.
func (c *Client) UpdateEntry(ctx context.Context, id string, patch EntryPatch) (*MoodEntry, error) {
	p, err := types.ValidatePatch(patch)
	if err != nil {
		return nil, observe("update_entry", err)
	}
	e, err := api.UpdateEntry(ctx, c.rest, id, p)
	return e, observe("update_entry", err)
}

// DeleteEntry removes id on the service.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return observe("delete_entry", api.DeleteEntry(ctx, c.rest, id))
}

// Calendar asks the service for the entries dated within month of year.
func (c *Client) Calendar(ctx context.Context, year int, month time.Month) ([]MoodEntry, error) {
	entries, err := api.Calendar(ctx, c.rest, year, month)
	return entries, observe("calendar", err)
}

// --------------------------------------------------------------------
// Stats operations
// --------------------------------------------------------------------

// GetStats fetches aggregate statistics for the trailing days window.
func (c *Client) GetStats(ctx context.Context, days int) (*AggregateStats, error) {
	st, err := api.GetStats(ctx, c.rest, days)
	return st, observe("stats", err)
}
