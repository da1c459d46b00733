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

func TestRefreshAfterLogoutIsDiscarded(t *testing.T) {
	t.Parallel()
	f := newFixture(t, day(2024, 1, 2), seedEntry(day(2024, 1, 1), "happy", 6))
	ctx := context.Background()
	base := f.statsCalls()

	release := f.srv.Hold(http.MethodGet, "/mood/stats")
	_, err := f.app.Create(ctx, client.EntryDraft{Mood: client.MoodSad})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.statsCalls() == base+1 }, 2*time.Second, 5*time.Millisecond)

	f.app.Session().Logout()
	release()
	require.NoError(t, f.app.AwaitStats(ctx))

	assert.Nil(t, f.app.Stats())
	assert.Equal(t, base+1, f.statsCalls(), "exactly one refresh for the mutation")
}

func TestOlderRefreshCannotOverwriteNewer(t *testing.T) {
	t.Parallel()
	now := day(2024, 1, 10).Add(12 * time.Hour)
	f := newFixture(t, now,
		seedEntry(day(2024, 1, 10), "happy", 8),
		seedEntry(day(2023, 12, 31), "sad", 2),
	)
	ctx := context.Background()
	base := f.statsCalls()

	release := f.srv.Hold(http.MethodGet, "/mood/stats")
	type outcome struct {
		st  *client.AggregateStats
		err error
	}
	older := make(chan outcome, 1)
	go func() {
		st, err := f.app.RefreshStats(ctx, 1)
		older <- outcome{st, err}
	}()
	require.Eventually(t, func() bool { return f.statsCalls() == base+1 }, 2*time.Second, 5*time.Millisecond)

	newer, err := f.app.RefreshStats(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, newer.TotalEntries)

	release()
	got := <-older
	require.NoError(t, got.err)
	assert.Equal(t, 2, got.st.TotalEntries, "late response yields the newer snapshot")
	assert.Equal(t, 2, f.app.Stats().TotalEntries)
	assert.Equal(t, 30, f.app.StatsWindow())
}

func TestFailedRefreshKeepsSnapshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t, day(2024, 1, 2), seedEntry(day(2024, 1, 1), "happy", 6))
	before := f.app.Stats()
	require.NotNil(t, before)

	f.srv.FailNext(http.MethodGet, "/mood/stats", http.StatusInternalServerError, "stats unavailable")
	_, err := f.app.RefreshStats(context.Background(), 0)

	require.True(t, client.IsSyncError(err))
	assert.Equal(t, before, f.app.Stats())
}

func TestRefreshUsesLastWindow(t *testing.T) {
	t.Parallel()
	now := day(2024, 3, 1)
	f := newFixture(t, now,
		seedEntry(now.AddDate(0, 0, -2), "happy", 6),
		seedEntry(now.AddDate(0, 0, -20), "sad", 3),
	)
	ctx := context.Background()
	assert.Equal(t, DefaultStatsWindow, f.app.StatsWindow())

	st, err := f.app.RefreshStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalEntries)

	_, err = f.app.Create(ctx, client.EntryDraft{Mood: client.MoodNeutral})
	require.NoError(t, err)
	require.NoError(t, f.app.AwaitStats(ctx))
	assert.Equal(t, 2, f.app.Stats().TotalEntries, "scheduled refresh reuses the 7 day window")
}

func TestStatsSnapshotIsACopy(t *testing.T) {
	t.Parallel()
	f := newFixture(t, day(2024, 1, 2), seedEntry(day(2024, 1, 1), "happy", 6))
	st := f.app.Stats()
	require.NotEmpty(t, st.MoodDistribution)

	st.MoodDistribution[0].Count = 99
	assert.NotEqual(t, 99, f.app.Stats().MoodDistribution[0].Count)
}

func TestScheduledRefreshIsNotRetried(t *testing.T) {
	t.Setenv("SQ_MAX_ATTEMPTS", "3")
	t.Setenv("SQ_BASE_BACKOFF", "1ms")
	srv := moodtest.NewServer()
	defer srv.Close()
	tok := srv.AddUser("Ada", "ada@example.com", "secret")
	cl := client.New(srv.URL, client.WithCredentials(client.NewCredentials(tok)))
	app := New(cl, WithLocation(time.UTC))
	defer app.Close()
	ctx := context.Background()

	srv.FailNext(http.MethodGet, "/mood/stats", http.StatusInternalServerError, "boom")
	require.NoError(t, app.Session().Start(ctx))
	require.NoError(t, app.AwaitStats(ctx))

	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/mood/stats"))
	assert.Nil(t, app.Stats())
}
