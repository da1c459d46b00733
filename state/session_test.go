package state

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodbuddy/moodbuddy/client"
	"github.com/moodbuddy/moodbuddy/internal/moodtest"
)

func TestStartWithoutCredentialStaysAnonymous(t *testing.T) {
	t.Parallel()
	srv := moodtest.NewServer()
	defer srv.Close()
	cl := client.New(srv.URL)
	app := New(cl)
	defer app.Close()

	require.NoError(t, app.Session().Start(context.Background()))
	assert.Equal(t, Anonymous, app.Session().State())
	assert.Zero(t, srv.Calls(http.MethodGet, "/auth/me"))
}

func TestStartWithRejectedCredential(t *testing.T) {
	t.Parallel()
	srv := moodtest.NewServer()
	defer srv.Close()
	cl := client.New(srv.URL, client.WithCredentials(client.NewCredentials("stale-token")))
	app := New(cl)
	defer app.Close()

	err := app.Session().Start(context.Background())

	require.Error(t, err)
	assert.Equal(t, Anonymous, app.Session().State())
	assert.False(t, cl.Credentials().Present(), "credential cleared")
	assert.Zero(t, app.Session().Epoch(), "never authenticated")
	assert.Zero(t, srv.Calls(http.MethodGet, "/mood/entries"))
}

func TestLogoutClearsEverything(t *testing.T) {
	t.Parallel()
	f := newFixture(t, day(2024, 1, 2), seedEntry(day(2024, 1, 1), "happy", 6))
	epoch := f.app.Session().Epoch()
	require.NotNil(t, f.app.Session().User())

	f.app.Session().Logout()

	assert.Equal(t, Anonymous, f.app.Session().State())
	assert.Empty(t, f.app.Entries())
	assert.Nil(t, f.app.Stats())
	assert.Nil(t, f.app.Session().User())
	assert.False(t, f.cl.Credentials().Present())
	assert.Greater(t, f.app.Session().Epoch(), epoch)
}

func TestUnauthorizedResponseForcesLogout(t *testing.T) {
	t.Parallel()
	f := newFixture(t, day(2024, 1, 2), seedEntry(day(2024, 1, 1), "happy", 6))
	epoch := f.app.Session().Epoch()

	f.srv.RevokeTokens()
	_, err := f.app.Create(context.Background(), client.EntryDraft{Mood: client.MoodSad})

	require.True(t, client.IsSyncError(err), "callers see a sync failure")
	assert.Equal(t, Anonymous, f.app.Session().State())
	assert.Empty(t, f.app.Entries())
	assert.Nil(t, f.app.Stats())
	assert.False(t, f.cl.Credentials().Present())
	assert.Equal(t, epoch+1, f.app.Session().Epoch(), "one transition despite interceptor and settle both firing")
}

func TestLoginSwitchesAccounts(t *testing.T) {
	t.Parallel()
	f := newFixture(t, day(2024, 1, 5), seedEntry(day(2024, 1, 1), "happy", 6))
	ctx := context.Background()
	other := f.srv.AddUser("Bob", "bob@example.com", "hunter2")
	f.srv.Seed(other,
		seedEntry(day(2024, 1, 3), "tired", 2),
		seedEntry(day(2024, 1, 4), "sad", 3),
	)
	epoch := f.app.Session().Epoch()

	require.NoError(t, f.app.Session().Login(ctx, "bob@example.com", "hunter2"))
	require.NoError(t, f.app.AwaitStats(ctx))

	assert.Equal(t, Authenticated, f.app.Session().State())
	assert.Equal(t, "bob@example.com", f.app.Session().User().Email)
	assert.Len(t, f.app.Entries(), 2)
	assert.Equal(t, 2, f.app.Stats().TotalEntries)
	assert.Equal(t, epoch+2, f.app.Session().Epoch(), "left one session and entered another")
}

func TestLoginFailureLeavesAnonymous(t *testing.T) {
	t.Parallel()
	f := newFixture(t, day(2024, 1, 5), seedEntry(day(2024, 1, 1), "happy", 6))

	err := f.app.Session().Login(context.Background(), "ada@example.com", "wrong")

	require.True(t, client.IsSyncError(err))
	assert.Equal(t, "Invalid credentials", client.UserMessage(err, ""))
	assert.Equal(t, Anonymous, f.app.Session().State())
	assert.Empty(t, f.app.Entries())
}

func TestRegisterAuthenticates(t *testing.T) {
	t.Parallel()
	srv := moodtest.NewServer()
	defer srv.Close()
	cl := client.New(srv.URL)
	app := New(cl, WithLocation(time.UTC))
	defer app.Close()
	ctx := context.Background()

	err := app.Session().Register(ctx, client.RegisterRequest{Name: "Cy", Email: "cy@example.com", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, Authenticated, app.Session().State())
	assert.True(t, cl.Credentials().Present())
	assert.Empty(t, app.Entries())
	require.NoError(t, app.AwaitStats(ctx))
	require.NotNil(t, app.Stats())
	assert.Zero(t, app.Stats().TotalEntries)
}

func TestStaleUnauthorizedLeavesNextSessionAlone(t *testing.T) {
	t.Parallel()
	f := newFixture(t, day(2024, 1, 5), seedEntry(day(2024, 1, 1), "happy", 6))
	ctx := context.Background()
	f.srv.AddUser("Bob", "bob@example.com", "hunter2")

	release := f.srv.Hold(http.MethodPost, "/mood/entries")
	f.srv.FailNext(http.MethodPost, "/mood/entries", http.StatusUnauthorized, "Token is not valid")
	done := make(chan error, 1)
	go func() {
		_, err := f.app.Create(ctx, client.EntryDraft{Mood: client.MoodSad})
		done <- err
	}()
	require.Eventually(t, func() bool { return f.srv.Calls(http.MethodPost, "/mood/entries") == 1 },
		2*time.Second, 5*time.Millisecond)

	f.app.Session().Logout()
	require.NoError(t, f.app.Session().Login(ctx, "bob@example.com", "hunter2"))
	epoch := f.app.Session().Epoch()
	bobToken := f.cl.Credentials().Token()
	require.NotEmpty(t, bobToken)

	release()
	require.True(t, client.IsAuthError(<-done), "the caller still sees its own rejection")

	assert.Equal(t, Authenticated, f.app.Session().State())
	assert.Equal(t, "bob@example.com", f.app.Session().User().Email)
	assert.Equal(t, bobToken, f.cl.Credentials().Token())
	assert.Equal(t, epoch, f.app.Session().Epoch())
}

func TestStaleLoginIsDiscardedAfterRelogin(t *testing.T) {
	t.Parallel()
	srv := moodtest.NewServer()
	defer srv.Close()
	srv.AddUser("Ada", "ada@example.com", "secret")
	srv.AddUser("Bob", "bob@example.com", "hunter2")
	cl := client.New(srv.URL)
	app := New(cl, WithLocation(time.UTC))
	defer app.Close()
	ctx := context.Background()

	release := srv.Hold(http.MethodPost, "/auth/login")
	done := make(chan error, 1)
	go func() { done <- app.Session().Login(ctx, "ada@example.com", "secret") }()
	require.Eventually(t, func() bool { return srv.Calls(http.MethodPost, "/auth/login") == 1 },
		2*time.Second, 5*time.Millisecond)

	app.Session().Logout()
	require.NoError(t, app.Session().Login(ctx, "bob@example.com", "hunter2"))
	bobToken := cl.Credentials().Token()

	release()
	err := <-done
	require.ErrorIs(t, err, ErrSessionEnded)

	assert.Equal(t, Authenticated, app.Session().State())
	assert.Equal(t, "bob@example.com", app.Session().User().Email)
	assert.Equal(t, bobToken, cl.Credentials().Token(), "ada's token never reached the holder")
	me, err := cl.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", me.Email)
}

func TestStaleLoginBeforeReloginCompletes(t *testing.T) {
	t.Parallel()
	srv := moodtest.NewServer()
	defer srv.Close()
	srv.AddUser("Ada", "ada@example.com", "secret")
	srv.AddUser("Bob", "bob@example.com", "hunter2")
	cl := client.New(srv.URL)
	app := New(cl, WithLocation(time.UTC))
	defer app.Close()
	ctx := context.Background()

	releaseAda := srv.Hold(http.MethodPost, "/auth/login")
	adaDone := make(chan error, 1)
	go func() { adaDone <- app.Session().Login(ctx, "ada@example.com", "secret") }()
	require.Eventually(t, func() bool { return srv.Calls(http.MethodPost, "/auth/login") == 1 },
		2*time.Second, 5*time.Millisecond)
	app.Session().Logout()

	releaseBob := srv.Hold(http.MethodPost, "/auth/login")
	bobDone := make(chan error, 1)
	go func() { bobDone <- app.Session().Login(ctx, "bob@example.com", "hunter2") }()
	require.Eventually(t, func() bool { return srv.Calls(http.MethodPost, "/auth/login") == 2 },
		2*time.Second, 5*time.Millisecond)

	releaseAda()
	require.ErrorIs(t, <-adaDone, ErrSessionEnded)
	assert.Equal(t, Authenticating, app.Session().State(), "bob's attempt is still in flight")
	assert.False(t, cl.Credentials().Present())

	releaseBob()
	require.NoError(t, <-bobDone)
	assert.Equal(t, "bob@example.com", app.Session().User().Email)
	assert.True(t, cl.Credentials().Present())
}

func TestStartSchedulesRefreshWhenLoadFails(t *testing.T) {
	t.Parallel()
	srv := moodtest.NewServer()
	defer srv.Close()
	tok := srv.AddUser("Ada", "ada@example.com", "secret")
	srv.Seed(tok, seedEntry(time.Now(), "happy", 6))
	cl := client.New(srv.URL, client.WithCredentials(client.NewCredentials(tok)))
	app := New(cl, WithLocation(time.UTC))
	defer app.Close()
	ctx := context.Background()

	srv.FailNext(http.MethodGet, "/mood/entries", http.StatusInternalServerError, "boom")
	err := app.Session().Start(ctx)

	require.True(t, client.IsSyncError(err))
	assert.Equal(t, Authenticated, app.Session().State())
	assert.Empty(t, app.Entries())
	require.NoError(t, app.AwaitStats(ctx))
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/mood/stats"))
	require.NotNil(t, app.Stats())
	assert.Equal(t, 1, app.Stats().TotalEntries)
}

func TestStartRejectedDuringLoadSkipsRefresh(t *testing.T) {
	t.Parallel()
	srv := moodtest.NewServer()
	defer srv.Close()
	tok := srv.AddUser("Ada", "ada@example.com", "secret")
	cl := client.New(srv.URL, client.WithCredentials(client.NewCredentials(tok)))
	app := New(cl, WithLocation(time.UTC))
	defer app.Close()
	ctx := context.Background()

	srv.FailNext(http.MethodGet, "/mood/entries", http.StatusUnauthorized, "Token is not valid")
	err := app.Session().Start(ctx)

	require.True(t, client.IsAuthError(err))
	assert.Equal(t, Anonymous, app.Session().State())
	require.NoError(t, app.AwaitStats(ctx))
	assert.Zero(t, srv.Calls(http.MethodGet, "/mood/stats"))
}

func TestUpdateProfileRefreshesUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t, day(2024, 1, 5))
	ctx := context.Background()

	u, err := f.app.Session().UpdateProfile(ctx, client.ProfileUpdate{Name: "Ada L", Profile: &client.Profile{FirstName: "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, "Ada L", u.Name)
	assert.Equal(t, "Ada L", f.app.Session().User().Name)
	require.NotNil(t, f.app.Session().User().Profile)

	_, err = f.app.Session().UpdateProfile(ctx, client.ProfileUpdate{})
	assert.True(t, client.IsValidationError(err))
	assert.Equal(t, "Ada L", f.app.Session().User().Name, "failed update keeps the user")
}

func TestUpdateProfileAfterLogoutIsDiscarded(t *testing.T) {
	t.Parallel()
	f := newFixture(t, day(2024, 1, 5))
	ctx := context.Background()

	release := f.srv.Hold(http.MethodPut, "/auth/profile")
	done := make(chan error, 1)
	go func() {
		_, err := f.app.Session().UpdateProfile(ctx, client.ProfileUpdate{Name: "Late"})
		done <- err
	}()
	require.Eventually(t, func() bool { return f.srv.Calls(http.MethodPut, "/auth/profile") == 1 },
		2*time.Second, 5*time.Millisecond)
	f.app.Session().Logout()
	release()

	require.ErrorIs(t, <-done, ErrSessionEnded)
	assert.Nil(t, f.app.Session().User())
}

func TestChangePasswordKeepsSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t, day(2024, 1, 5))
	ctx := context.Background()

	err := f.app.Session().ChangePassword(ctx, "wrong", "new-secret")
	assert.Equal(t, "Current password is incorrect", client.UserMessage(err, ""))
	require.NoError(t, f.app.Session().ChangePassword(ctx, "secret", "new-secret"))

	assert.Equal(t, Authenticated, f.app.Session().State())
	assert.Equal(t, f.token, f.cl.Credentials().Token())
	f.app.Session().Logout()
	require.NoError(t, f.app.Session().Login(ctx, "ada@example.com", "new-secret"))
}

func TestSessionStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ANONYMOUS", Anonymous.String())
	assert.Equal(t, "AUTHENTICATING", Authenticating.String())
	assert.Equal(t, "AUTHENTICATED", Authenticated.String())
	assert.Equal(t, "SessionState(7)", SessionState(7).String())
}
