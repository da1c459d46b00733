package state

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moodbuddy/moodbuddy/client"
	"github.com/moodbuddy/moodbuddy/internal/moodtest"
)

type fixture struct {
	srv   *moodtest.Server
	cl    *client.Client
	app   *App
	token string
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedEntry(date time.Time, mood string, intensity int) moodtest.Entry {
	return moodtest.Entry{Date: moodtest.Time(date), Mood: mood, MoodIntensity: intensity}
}

// newFixture starts a fake service with one user, seeds it, and returns an
// App that has already resumed the user's session and settled its first
// stats refresh.
func newFixture(t *testing.T, now time.Time, seed ...moodtest.Entry) *fixture {
	t.Helper()
	srv := moodtest.NewServer()
	t.Cleanup(srv.Close)
	srv.SetNow(func() time.Time { return now })
	tok := srv.AddUser("Ada", "ada@example.com", "secret")
	srv.Seed(tok, seed...)

	cl := client.New(srv.URL, client.WithCredentials(client.NewCredentials(tok)))
	t.Cleanup(func() { _ = cl.Close() })
	app := New(cl, WithClock(func() time.Time { return now }), WithLocation(time.UTC))
	t.Cleanup(func() { _ = app.Close() })

	ctx := context.Background()
	require.NoError(t, app.Session().Start(ctx))
	require.NoError(t, app.AwaitStats(ctx))
	return &fixture{srv: srv, cl: cl, app: app, token: tok}
}

func (f *fixture) statsCalls() int { return f.srv.Calls(http.MethodGet, "/mood/stats") }

func ids(entries []client.MoodEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
