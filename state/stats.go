package state

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/moodbuddy/moodbuddy/client"
	"github.com/moodbuddy/moodbuddy/internal/shardqueue"
)

// statsKey is the executor key for refreshes; one key keeps them in order.
const statsKey = "stats"

// statsCache holds the last applied snapshot. Every refresh takes a sequence
// number when issued; a response older than the one already applied is
// dropped so overlapping refreshes cannot regress the snapshot.
type statsCache struct {
	snapshot *client.AggregateStats
	window   int
	issued   uint64
	applied  uint64
}

// Stats returns the cached snapshot, or nil when none has been fetched in
// this session.
func (a *App) Stats() *client.AggregateStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneStats(a.stats.snapshot)
}

// StatsWindow returns the window the next scheduled refresh will use.
func (a *App) StatsWindow() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats.window
}

// RefreshStats fetches stats for the trailing windowDays (the last-used
// window when windowDays <= 0) and replaces the snapshot. On failure the
// previous snapshot stays.
func (a *App) RefreshStats(ctx context.Context, windowDays int) (*client.AggregateStats, error) {
	epoch := a.mustAuthenticated("RefreshStats")
	return a.refresh(ctx, epoch, windowDays)
}

func (a *App) refresh(ctx context.Context, epoch uint64, windowDays int) (*client.AggregateStats, error) {
	a.mu.Lock()
	if !a.currentLocked(epoch) {
		a.mu.Unlock()
		refreshTotal.WithLabelValues("stale_session").Inc()
		return nil, &client.SyncError{Op: "refresh stats", Err: ErrSessionEnded}
	}
	if windowDays > 0 {
		a.stats.window = windowDays
	}
	window := a.stats.window
	a.stats.issued++
	seq := a.stats.issued
	a.mu.Unlock()

	st, err := a.remote.GetStats(ctx, window)
	if err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		return nil, a.settle(epoch, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.currentLocked(epoch) {
		refreshTotal.WithLabelValues("stale_session").Inc()
		staleDroppedTotal.WithLabelValues("stats").Inc()
		return nil, &client.SyncError{Op: "refresh stats", Err: ErrSessionEnded}
	}
	if seq <= a.stats.applied {
		refreshTotal.WithLabelValues("out_of_order").Inc()
		log.Debug().Uint64("seq", seq).Uint64("applied", a.stats.applied).Msg("state: dropped out-of-order stats")
		return cloneStats(a.stats.snapshot), nil
	}
	a.stats.applied = seq
	a.stats.snapshot = cloneStats(st)
	refreshTotal.WithLabelValues("ok").Inc()
	return cloneStats(st), nil
}

// scheduleRefresh queues one background refresh for the session epoch. The
// caller is not blocked on it and its context only carries values: the
// refresh runs to completion even if the caller's request is cancelled.
func (a *App) scheduleRefresh(ctx context.Context, epoch uint64) {
	job := shardqueue.JobFunc(func(ctx context.Context) error {
		_, err := a.refresh(ctx, epoch, 0)
		if errors.Is(err, ErrSessionEnded) {
			return nil
		}
		return err
	})
	if err := a.exec.Submit(context.WithoutCancel(ctx), statsKey, job); err != nil {
		refreshTotal.WithLabelValues("not_scheduled").Inc()
		log.Warn().Err(err).Msg("state: could not schedule stats refresh")
	}
}

// AwaitStats blocks until every refresh scheduled so far has finished.
func (a *App) AwaitStats(ctx context.Context) error {
	return a.exec.Barrier(ctx, statsKey)
}

func cloneStats(s *client.AggregateStats) *client.AggregateStats {
	if s == nil {
		return nil
	}
	out := *s
	out.MoodDistribution = append([]client.MoodCount(nil), s.MoodDistribution...)
	out.MoodTrend = append([]client.TrendPoint(nil), s.MoodTrend...)
	out.ActivityFrequency = append([]client.ActivityCount(nil), s.ActivityFrequency...)
	return &out
}
