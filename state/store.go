package state

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/moodbuddy/moodbuddy/client"
)

// Entry store. The cache holds server-confirmed entries only, most recent
// first. Nothing is written before the service confirms it, and a failed
// call leaves the cache exactly as it was.

// Load replaces the whole cache with the entries matching filter. On failure
// the previous cache is kept.
func (a *App) Load(ctx context.Context, filter client.EntryFilter) ([]client.MoodEntry, error) {
	epoch := a.mustAuthenticated("Load")
	return a.load(ctx, epoch, filter)
}

func (a *App) load(ctx context.Context, epoch uint64, filter client.EntryFilter) ([]client.MoodEntry, error) {
	entries, err := a.remote.ListEntries(ctx, filter)
	if err != nil {
		return nil, a.settle(epoch, err)
	}

	fresh := make([]client.MoodEntry, 0, len(entries))
	for _, e := range entries {
		fresh = append(fresh, e.Clone())
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.currentLocked(epoch) {
		staleDroppedTotal.WithLabelValues("load").Inc()
		return nil, &client.SyncError{Op: "load entries", Err: ErrSessionEnded}
	}
	a.entries = fresh
	storeEntries.Set(float64(len(fresh)))
	log.Debug().Int("entries", len(fresh)).Msg("state: store loaded")
	return cloneAll(fresh), nil
}

// Create validates draft, sends it and prepends the stored entry. A draft
// without a mood fails with a ValidationError before any request. A zero
// Date is taken as now. The streak the service reports with the entry is
// passed through to the caller; the stats snapshot is refreshed separately.
func (a *App) Create(ctx context.Context, draft client.EntryDraft) (*client.CreatedEntry, error) {
	epoch := a.mustAuthenticated("Create")
	d, err := client.ValidateDraft(draft)
	if err != nil {
		return nil, err
	}
	if d.Date.IsZero() {
		d.Date = a.now()
	}

	created, err := a.remote.CreateEntry(ctx, d)
	if err != nil {
		return nil, a.settle(epoch, err)
	}

	a.mu.Lock()
	if !a.currentLocked(epoch) {
		a.mu.Unlock()
		staleDroppedTotal.WithLabelValues("create").Inc()
		return nil, &client.SyncError{Op: "create entry", Err: ErrSessionEnded}
	}
	next := make([]client.MoodEntry, 0, len(a.entries)+1)
	next = append(next, created.MoodEntry.Clone())
	next = append(next, a.entries...)
	a.entries = next
	storeEntries.Set(float64(len(next)))
	a.mu.Unlock()

	a.scheduleRefresh(ctx, epoch)
	out := client.CreatedEntry{MoodEntry: created.MoodEntry.Clone()}
	if created.Streak != nil {
		st := *created.Streak
		out.Streak = &st
	}
	return &out, nil
}

// Update sends patch for id and replaces the cached entry in place. An id
// that is not cached fails with a NotFoundError before any request.
func (a *App) Update(ctx context.Context, id string, patch client.EntryPatch) (*client.MoodEntry, error) {
	epoch := a.mustAuthenticated("Update")
	a.mu.RLock()
	idx := indexOf(a.entries, id)
	a.mu.RUnlock()
	if idx < 0 {
		return nil, client.NotFoundError{ID: id}
	}

	updated, err := a.remote.UpdateEntry(ctx, id, patch)
	if err != nil {
		return nil, a.settle(epoch, err)
	}

	a.mu.Lock()
	if !a.currentLocked(epoch) {
		a.mu.Unlock()
		staleDroppedTotal.WithLabelValues("update").Inc()
		return nil, &client.SyncError{Op: "update entry", Err: ErrSessionEnded}
	}
	// Re-resolve: a concurrent remove may have shifted or dropped it.
	if i := indexOf(a.entries, id); i >= 0 {
		next := append([]client.MoodEntry(nil), a.entries...)
		next[i] = updated.Clone()
		a.entries = next
	}
	a.mu.Unlock()

	a.scheduleRefresh(ctx, epoch)
	out := updated.Clone()
	return &out, nil
}

// Remove deletes id on the service, then drops it from the cache.
func (a *App) Remove(ctx context.Context, id string) error {
	epoch := a.mustAuthenticated("Remove")
	if err := a.settle(epoch, a.remote.DeleteEntry(ctx, id)); err != nil {
		return err
	}

	a.mu.Lock()
	if !a.currentLocked(epoch) {
		a.mu.Unlock()
		staleDroppedTotal.WithLabelValues("remove").Inc()
		return &client.SyncError{Op: "delete entry", Err: ErrSessionEnded}
	}
	if i := indexOf(a.entries, id); i >= 0 {
		next := make([]client.MoodEntry, 0, len(a.entries)-1)
		next = append(next, a.entries[:i]...)
		next = append(next, a.entries[i+1:]...)
		a.entries = next
		storeEntries.Set(float64(len(next)))
	}
	a.mu.Unlock()

	a.scheduleRefresh(ctx, epoch)
	return nil
}

// Entries returns a copy of the cache in store order.
func (a *App) Entries() []client.MoodEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneAll(a.entries)
}

func indexOf(entries []client.MoodEntry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(in []client.MoodEntry) []client.MoodEntry {
	out := make([]client.MoodEntry, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
