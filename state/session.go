package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/moodbuddy/moodbuddy/client"
)

// SessionState is the position of the session gate.
type SessionState int

const (
	Anonymous SessionState = iota
	Authenticating
	Authenticated
)

func (s SessionState) String() string {
	switch s {
	case Anonymous:
		return "ANONYMOUS"
	case Authenticating:
		return "AUTHENTICATING"
	case Authenticated:
		return "AUTHENTICATED"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// ErrSessionEnded is wrapped in the SyncError returned when a response
// arrives for a session that is no longer current. The result was discarded.
var ErrSessionEnded = errors.New("session ended before the response arrived")

// ErrSessionBusy is returned when a login or start is attempted while another
// one is still confirming identity.
var ErrSessionBusy = errors.New("session is already authenticating")

type sessionState struct {
	state SessionState
	epoch uint64
	// attempt identifies the identity confirmation in flight. It moves on
	// every begin and every end, so a late login or start is recognised even
	// when the gate never reached AUTHENTICATED in between.
	attempt uint64
	user    *client.User
}

// SessionGate gates the store to an authenticated session. It shares the
// App's lock so a transition and the cache clear it implies are one step.
type SessionGate struct {
	app *App
}

// State returns the current gate position.
func (g *SessionGate) State() SessionState {
	g.app.mu.RLock()
	defer g.app.mu.RUnlock()
	return g.app.session.state
}

// Epoch returns the session generation. It changes on every transition into
// or out of AUTHENTICATED.
func (g *SessionGate) Epoch() uint64 {
	g.app.mu.RLock()
	defer g.app.mu.RUnlock()
	return g.app.session.epoch
}

// User returns the confirmed account, or nil when not authenticated.
func (g *SessionGate) User() *client.User {
	g.app.mu.RLock()
	defer g.app.mu.RUnlock()
	if g.app.session.user == nil {
		return nil
	}
	u := *g.app.session.user
	return &u
}

// Start resumes a stored credential. With no credential the gate stays
// ANONYMOUS and Start returns nil. Otherwise the gate confirms identity with
// the service; on success it becomes AUTHENTICATED, loads the store and
// schedules a stats refresh. On failure it returns to ANONYMOUS and the
// credential is cleared.
func (g *SessionGate) Start(ctx context.Context) error {
	a := g.app
	if !a.remote.Credentials().Present() {
		return nil
	}
	attempt, err := g.begin()
	if err != nil {
		if errors.Is(err, errAlreadyAuthenticated) {
			return nil
		}
		return err
	}

	u, err := a.remote.Me(ctx)
	if err != nil {
		g.abort(attempt, "identity confirmation failed")
		return err
	}
	return g.complete(ctx, attempt, u, "")
}

// Login authenticates with email and password. Any current session ends
// first, so nothing cached for a previous account survives.
func (g *SessionGate) Login(ctx context.Context, email, password string) error {
	return g.authenticate(ctx, "login", func(ctx context.Context) (*client.AuthResponse, error) {
		return g.app.remote.Login(ctx, email, password)
	})
}

// Register creates an account and authenticates as it.
func (g *SessionGate) Register(ctx context.Context, req client.RegisterRequest) error {
	return g.authenticate(ctx, "register", func(ctx context.Context) (*client.AuthResponse, error) {
		return g.app.remote.Register(ctx, req)
	})
}

func (g *SessionGate) authenticate(ctx context.Context, op string, fn func(context.Context) (*client.AuthResponse, error)) error {
	a := g.app
	a.mu.Lock()
	if a.session.state == Authenticating {
		a.mu.Unlock()
		return ErrSessionBusy
	}
	a.endLocked()
	a.session.state = Authenticating
	attempt := a.session.attempt
	a.mu.Unlock()
	transitionsTotal.WithLabelValues(Authenticating.String()).Inc()

	ar, err := fn(ctx)
	if err != nil {
		g.abort(attempt, op+" failed")
		return err
	}
	return g.complete(ctx, attempt, &ar.User, ar.Token)
}

// Logout ends the session: store, stats and credential are cleared
// unconditionally. Responses still in flight are discarded on arrival.
func (g *SessionGate) Logout() {
	g.end("logout")
}

// ForceLogout ends the session after an authorization failure. It is a no-op
// when the gate is already ANONYMOUS.
func (g *SessionGate) ForceLogout(reason string) {
	a := g.app
	a.mu.Lock()
	from := a.session.state
	if from == Anonymous {
		a.remote.Credentials().Clear()
		a.mu.Unlock()
		return
	}
	a.endLocked()
	epoch := a.session.epoch
	a.mu.Unlock()
	g.ended(from, reason, epoch, true)
}

// forceLogoutAt ends the session only if epoch is still the live one. A
// rejection that belongs to an earlier session leaves the current one alone.
func (g *SessionGate) forceLogoutAt(epoch uint64, reason string) {
	a := g.app
	a.mu.Lock()
	if !a.currentLocked(epoch) {
		a.mu.Unlock()
		staleDroppedTotal.WithLabelValues("unauthorized").Inc()
		return
	}
	a.endLocked()
	next := a.session.epoch
	a.mu.Unlock()
	g.ended(Authenticated, reason, next, true)
}

func (g *SessionGate) end(reason string) {
	a := g.app
	a.mu.Lock()
	from := a.session.state
	a.endLocked()
	epoch := a.session.epoch
	a.mu.Unlock()
	g.ended(from, reason, epoch, false)
}

func (g *SessionGate) ended(from SessionState, reason string, epoch uint64, forced bool) {
	if from == Anonymous {
		return
	}
	transitionsTotal.WithLabelValues(Anonymous.String()).Inc()
	if forced {
		forcedLogoutsTotal.Inc()
		log.Warn().Str("reason", reason).Str("from", from.String()).Msg("state: session ended by service")
		return
	}
	log.Debug().Str("reason", reason).Uint64("epoch", epoch).Msg("state: session ended")
}

var errAlreadyAuthenticated = errors.New("already authenticated")

// begin moves ANONYMOUS to AUTHENTICATING and returns the attempt id.
func (g *SessionGate) begin() (uint64, error) {
	a := g.app
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.session.state {
	case Authenticated:
		return 0, errAlreadyAuthenticated
	case Authenticating:
		return 0, ErrSessionBusy
	}
	a.session.attempt++
	a.session.state = Authenticating
	transitionsTotal.WithLabelValues(Authenticating.String()).Inc()
	return a.session.attempt, nil
}

// abort moves AUTHENTICATING back to ANONYMOUS and drops the credential, but
// only for the attempt that is still in flight.
func (g *SessionGate) abort(attempt uint64, reason string) {
	a := g.app
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session.state != Authenticating || a.session.attempt != attempt {
		log.Debug().Str("reason", reason).Msg("state: superseded authentication failed")
		return
	}
	a.session.state = Anonymous
	a.session.attempt++
	a.remote.Credentials().Clear()
	transitionsTotal.WithLabelValues(Anonymous.String()).Inc()
	log.Debug().Str("reason", reason).Msg("state: authentication failed")
}

// complete moves AUTHENTICATING to AUTHENTICATED for attempt, stores token
// when one was issued, then performs the initial bulk load and schedules the
// first stats refresh. A superseded attempt is discarded without touching
// the credential.
func (g *SessionGate) complete(ctx context.Context, attempt uint64, u *client.User, token string) error {
	a := g.app
	a.mu.Lock()
	if a.session.state != Authenticating || a.session.attempt != attempt {
		a.mu.Unlock()
		staleDroppedTotal.WithLabelValues("session").Inc()
		return &client.SyncError{Op: "start session", Err: ErrSessionEnded}
	}
	if token != "" {
		a.remote.Credentials().Set(token)
	}
	a.session.state = Authenticated
	a.session.epoch++
	if u != nil {
		cp := *u
		a.session.user = &cp
	}
	epoch := a.session.epoch
	a.mu.Unlock()
	transitionsTotal.WithLabelValues(Authenticated.String()).Inc()
	log.Debug().Uint64("epoch", epoch).Msg("state: session authenticated")

	_, err := a.load(ctx, epoch, client.EntryFilter{})
	if client.IsAuthError(err) {
		return err
	}
	// Stats are refreshed even when the load failed.
	a.scheduleRefresh(ctx, epoch)
	return err
}

// UpdateProfile changes account fields and replaces the session user with
// the account the service returns.
func (g *SessionGate) UpdateProfile(ctx context.Context, u client.ProfileUpdate) (*client.User, error) {
	a := g.app
	epoch := a.mustAuthenticated("UpdateProfile")
	updated, err := a.remote.UpdateProfile(ctx, u)
	if err != nil {
		return nil, a.settle(epoch, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.currentLocked(epoch) {
		staleDroppedTotal.WithLabelValues("profile").Inc()
		return nil, &client.SyncError{Op: "update profile", Err: ErrSessionEnded}
	}
	cp := *updated
	a.session.user = &cp
	out := cp
	return &out, nil
}

// ChangePassword replaces the account password. The session continues.
func (g *SessionGate) ChangePassword(ctx context.Context, current, next string) error {
	a := g.app
	epoch := a.mustAuthenticated("ChangePassword")
	err := a.remote.ChangePassword(ctx, client.PasswordChange{CurrentPassword: current, NewPassword: next})
	return a.settle(epoch, err)
}

// endLocked clears everything tied to the session, credential included.
// Callers hold mu.
func (a *App) endLocked() {
	if a.session.state == Authenticated {
		a.session.epoch++
	}
	a.session.attempt++
	a.session.state = Anonymous
	a.session.user = nil
	a.entries = nil
	a.stats.snapshot = nil
	a.remote.Credentials().Clear()
	storeEntries.Set(0)
}
