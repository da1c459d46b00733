package state

import (
	"context"
	"time"

	"github.com/moodbuddy/moodbuddy/client"
)

// DayKeyLayout formats calendar keys.
const DayKeyLayout = "2006-01-02"

// DaySummary is what a calendar cell needs to paint one day.
type DaySummary struct {
	Mood       client.Mood `json:"mood"`
	Intensity  int         `json:"intensity"`
	HasJournal bool        `json:"hasJournal"`
}

// TodayEntry returns the first entry in store order whose date falls on the
// calendar day of now in loc.
func TodayEntry(entries []client.MoodEntry, now time.Time, loc *time.Location) (client.MoodEntry, bool) {
	key := now.In(loc).Format(DayKeyLayout)
	for _, e := range entries {
		if e.Date.In(loc).Format(DayKeyLayout) == key {
			return e.Clone(), true
		}
	}
	return client.MoodEntry{}, false
}

// CalendarIndex maps every day of year/month in loc that has an entry to its
// summary. When several entries share a day the first in store order wins.
func CalendarIndex(entries []client.MoodEntry, year int, month time.Month, loc *time.Location) map[string]DaySummary {
	out := make(map[string]DaySummary)
	for _, e := range entries {
		d := e.Date.In(loc)
		if d.Year() != year || d.Month() != month {
			continue
		}
		key := d.Format(DayKeyLayout)
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = DaySummary{Mood: e.Mood, Intensity: e.MoodIntensity, HasJournal: e.HasJournal()}
	}
	return out
}

// Recent returns the first n entries in store order.
func Recent(entries []client.MoodEntry, n int) []client.MoodEntry {
	if n <= 0 {
		return []client.MoodEntry{}
	}
	if n > len(entries) {
		n = len(entries)
	}
	return cloneAll(entries[:n])
}

// ByID looks id up. Absence is a normal result.
func ByID(entries []client.MoodEntry, id string) (client.MoodEntry, bool) {
	if i := indexOf(entries, id); i >= 0 {
		return entries[i].Clone(), true
	}
	return client.MoodEntry{}, false
}

// TodayEntry returns today's cached entry, if any.
func (a *App) TodayEntry() (client.MoodEntry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return TodayEntry(a.entries, a.now(), a.loc)
}

// CalendarIndex returns the per-day summaries for year/month.
func (a *App) CalendarIndex(year int, month time.Month) map[string]DaySummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return CalendarIndex(a.entries, year, month, a.loc)
}

// Recent returns the n most recent cached entries.
func (a *App) Recent(n int) []client.MoodEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Recent(a.entries, n)
}

// ByID returns the cached entry for id.
func (a *App) ByID(id string) (client.MoodEntry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return ByID(a.entries, id)
}

// FetchCalendar asks the service for year/month and summarises the answer
// the same way CalendarIndex does. The cache is not touched, so a month
// outside the loaded window can be shown without replacing the store.
func (a *App) FetchCalendar(ctx context.Context, year int, month time.Month) (map[string]DaySummary, error) {
	epoch := a.mustAuthenticated("FetchCalendar")
	entries, err := a.remote.Calendar(ctx, year, month)
	if err != nil {
		return nil, a.settle(epoch, err)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.currentLocked(epoch) {
		staleDroppedTotal.WithLabelValues("calendar").Inc()
		return nil, &client.SyncError{Op: "calendar", Err: ErrSessionEnded}
	}
	return CalendarIndex(entries, year, month, a.loc), nil
}

// Location returns the time zone used for calendar days.
func (a *App) Location() *time.Location { return a.loc }

// Now returns the App's notion of the current time.
func (a *App) Now() time.Time { return a.now() }
