// Package state is the client-side source of truth for one user's mood
// entries. It owns the entry cache, the aggregate-stats snapshot and the
// session gate, and keeps all three consistent with the remote service
// through the client package.
//
// Every remote result is applied only if the session that issued the call is
// still the current one. The session epoch increments whenever the gate
// enters or leaves AUTHENTICATED, so a response that arrives after a logout
// or a re-login is discarded.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/moodbuddy/moodbuddy/client"
	"github.com/moodbuddy/moodbuddy/internal/shardqueue"
)

// DefaultStatsWindow is the trailing window, in days, used for stats
// refreshes until a caller asks for another one.
const DefaultStatsWindow = 30

// Remote is the slice of the client SDK the state layer drives. *client.Client
// satisfies it.
type Remote interface {
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) (*client.AuthResponse, error)
	Me(ctx context.Context) (*client.User, error)
	UpdateProfile(ctx context.Context, u client.ProfileUpdate) (*client.User, error)
	ChangePassword(ctx context.Context, p client.PasswordChange) error

	ListEntries(ctx context.Context, filter client.EntryFilter) ([]client.MoodEntry, error)
	Calendar(ctx context.Context, year int, month time.Month) ([]client.MoodEntry, error)
	CreateEntry(ctx context.Context, draft client.EntryDraft) (*client.CreatedEntry, error)
	UpdateEntry(ctx context.Context, id string, patch client.EntryPatch) (*client.MoodEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	GetStats(ctx context.Context, days int) (*client.AggregateStats, error)

	Credentials() *client.Credentials
	SetUnauthorizedHandler(fn func())
}

// Executor runs background jobs. *shardqueue.ShardExecutor satisfies it.
type Executor interface {
	Submit(ctx context.Context, key string, job shardqueue.Job) error
	Barrier(ctx context.Context, key string) error
	Stop()
}

// App is the application's root state: entry store, derived views, stats
// cache and session gate behind a single lock.
type App struct {
	remote Remote
	exec   Executor
	// ownsExec is true when New created the executor and Close must stop it.
	ownsExec bool

	now func() time.Time
	loc *time.Location

	mu      sync.RWMutex
	session sessionState
	entries []client.MoodEntry
	stats   statsCache

	gate *SessionGate

	closeOnce sync.Once
}

// Option configures an App during construction in New.
type Option func(*App)

// WithExecutor runs stats refreshes on exec instead of a private executor.
// The caller keeps ownership: Close does not stop it.
func WithExecutor(exec Executor) Option {
	return func(a *App) {
		if exec != nil {
			a.exec = exec
			a.ownsExec = false
		}
	}
}

// WithClock overrides the wall clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLocation sets the time zone in which entry dates are bucketed into
// calendar days. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(a *App) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithStatsWindow sets the initial stats window in days.
func WithStatsWindow(days int) Option {
	return func(a *App) {
		if days > 0 {
			a.stats.window = days
		}
	}
}

// New builds an App around remote. The session starts ANONYMOUS; call
// Session().Start to resume a stored credential.
func New(remote Remote, opts ...Option) *App {
	if remote == nil {
		panic("state: remote cannot be nil")
	}
	a := &App{
		remote: remote,
		now:    time.Now,
		loc:    time.Local,
		stats:  statsCache{window: DefaultStatsWindow},
	}
	a.gate = &SessionGate{app: a}
	for _, opt := range opts {
		opt(a)
	}
	if a.exec == nil {
		cfg, err := shardqueue.LoadConfig()
		if err != nil {
			log.Warn().Err(err).Msg("state: invalid SQ_ settings, using executor defaults")
			cfg = shardqueue.Config{}
		}
		// Refreshes run once regardless of SQ_MAX_ATTEMPTS. The executor only
		// knows ClassifiedError and would retry a SyncError.
		cfg.MaxAttempts = 1
		cfg.ErrorHandler = func(err error) {
			log.Warn().Err(err).Msg("state: background refresh failed")
		}
		a.exec = shardqueue.NewShardExecutor(cfg)
		a.ownsExec = true
	}

	// A 401 for the held token ends the session, whichever caller issued it.
	remote.SetUnauthorizedHandler(func() { a.gate.ForceLogout("service rejected credentials") })
	return a
}

// Session returns the session gate.
func (a *App) Session() *SessionGate { return a.gate }

// Close detaches from the remote and stops the executor if App owns it.
// Queued refreshes are drained first.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.remote.SetUnauthorizedHandler(nil)
		if a.ownsExec {
			a.exec.Stop()
		}
	})
	return nil
}

// settle routes authorization failures for the session epoch to the gate and
// passes err through. Callers see an AuthError as the SyncError it wraps.
func (a *App) settle(epoch uint64, err error) error {
	if client.IsAuthError(err) {
		a.gate.forceLogoutAt(epoch, "service rejected credentials")
	}
	return err
}

// mustAuthenticated captures the current epoch. Mutating the store without a
// session is a programming error.
func (a *App) mustAuthenticated(op string) uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session.state != Authenticated {
		panic("state: " + op + " called while " + a.session.state.String())
	}
	return a.session.epoch
}

// currentLocked reports whether epoch is still the live authenticated
// session. Callers hold mu.
func (a *App) currentLocked(epoch uint64) bool {
	return a.session.state == Authenticated && a.session.epoch == epoch
}
