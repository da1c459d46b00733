package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/moodbuddy/moodbuddy/client/internal/types"
)

// entryWire mirrors the service document. Dates go through strfmt so the
// various ISO-8601 renderings the service emits all decode.
type entryWire struct {
	ID            string           `json:"_id"`
	Date          strfmt.DateTime  `json:"date"`
	Mood          types.Mood       `json:"mood"`
	MoodIntensity int              `json:"moodIntensity"`
	JournalEntry  string           `json:"journalEntry"`
	Activities    []types.Activity `json:"activities"`
	SleepHours    *float64         `json:"sleepHours"`
	Weather       types.Weather    `json:"weather"`
	Tags          []string         `json:"tags"`
	CreatedAt     strfmt.DateTime  `json:"createdAt"`
}

func (w entryWire) entry() types.MoodEntry {
	return types.MoodEntry{
		ID:            w.ID,
		Date:          time.Time(w.Date),
		Mood:          w.Mood,
		MoodIntensity: w.MoodIntensity,
		JournalEntry:  w.JournalEntry,
		Activities:    w.Activities,
		SleepHours:    w.SleepHours,
		Weather:       w.Weather,
		Tags:          w.Tags,
		CreatedAt:     time.Time(w.CreatedAt),
	}
}

func entryPath(id string) string { return "/mood/entries/" + url.PathEscape(id) }

// ListEntries returns the entries matching filter, newest first.
func ListEntries(ctx context.Context, rc *resty.Client, filter types.EntryFilter) ([]types.MoodEntry, error) {
	c := call{op: "list entries", method: http.MethodGet, path: "/mood/entries", query: filter.Query()}
	status, raw, err := execute(ctx, rc, c)
	if err != nil {
		return nil, err
	}
	var wires []entryWire
	if err := decodeData(c.op, status, raw, &wires); err != nil {
		return nil, err
	}
	out := make([]types.MoodEntry, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.entry())
	}
	return out, nil
}

// GetEntry fetches a single entry by id.
func GetEntry(ctx context.Context, rc *resty.Client, id string) (*types.MoodEntry, error) {
	if err := types.ValidateID(id); err != nil {
		return nil, err
	}
	return entryCall(ctx, rc, call{op: "get entry", method: http.MethodGet, path: entryPath(id)})
}

// TodayEntry asks the service for today's entry. A missing entry is
// reported as (nil, nil).
func TodayEntry(ctx context.Context, rc *resty.Client) (*types.MoodEntry, error) {
	c := call{op: "today entry", method: http.MethodGet, path: "/mood/entries/today"}
	status, raw, err := execute(ctx, rc, c)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	var w *entryWire
	if err := decodeData(c.op, status, raw, &w); err != nil {
		return nil, err
	}
	if w == nil || w.ID == "" {
		return nil, nil
	}
	e := w.entry()
	return &e, nil
}

// CreateEntry posts a validated draft and returns the stored entry with the
// streak the service reported next to it.
func CreateEntry(ctx context.Context, rc *resty.Client, draft types.EntryDraft) (*types.CreatedEntry, error) {
	c := call{op: "create entry", method: http.MethodPost, path: "/mood/entries", body: draft}
	status, raw, err := execute(ctx, rc, c)
	if err != nil {
		return nil, err
	}
	e, err := decodeEntry(c.op, status, raw)
	if err != nil {
		return nil, err
	}
	var extra struct {
		Streak *types.Streak `json:"streak"`
	}
	if err := json.Unmarshal(raw, &extra); err != nil {
		// The entry is stored; an unreadable streak is only logged.
		log.Debug().Err(err).Msg("create entry: ignoring malformed streak")
	}
	return &types.CreatedEntry{MoodEntry: *e, Streak: extra.Streak}, nil
}

// Calendar returns the entries dated within month of year, newest first.
func Calendar(ctx context.Context, rc *resty.Client, year int, month time.Month) ([]types.MoodEntry, error) {
	if err := types.ValidateMonth(year, month); err != nil {
		return nil, err
	}
	c := call{op: "calendar", method: http.MethodGet, path: "/mood/calendar", query: map[string]string{
		"year":  strconv.Itoa(year),
		"month": strconv.Itoa(int(month)),
	}}
	status, raw, err := execute(ctx, rc, c)
	if err != nil {
		return nil, err
	}
	var wires []entryWire
	if err := decodeData(c.op, status, raw, &wires); err != nil {
		return nil, err
	}
	out := make([]types.MoodEntry, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.entry())
	}
	return out, nil
}

// UpdateEntry sends patch for id and returns the updated entry.
func UpdateEntry(ctx context.Context, rc *resty.Client, id string, patch types.EntryPatch) (*types.MoodEntry, error) {
	if err := types.ValidateID(id); err != nil {
		return nil, err
	}
	return entryCall(ctx, rc, call{op: "update entry", method: http.MethodPut, path: entryPath(id), body: patch})
}

// DeleteEntry removes id on the service.
func DeleteEntry(ctx context.Context, rc *resty.Client, id string) error {
	if err := types.ValidateID(id); err != nil {
		return err
	}
	c := call{op: "delete entry", method: http.MethodDelete, path: entryPath(id)}
	status, raw, err := execute(ctx, rc, c)
	if err != nil {
		return err
	}
	if status == http.StatusNoContent || len(raw) == 0 {
		return nil
	}
	return decodeData(c.op, status, raw, nil)
}

func entryCall(ctx context.Context, rc *resty.Client, c call) (*types.MoodEntry, error) {
	status, raw, err := execute(ctx, rc, c)
	if err != nil {
		return nil, err
	}
	return decodeEntry(c.op, status, raw)
}

func decodeEntry(op string, status int, raw []byte) (*types.MoodEntry, error) {
	var w entryWire
	if err := decodeData(op, status, raw, &w); err != nil {
		return nil, err
	}
	if w.ID == "" {
		return nil, &types.SyncError{Op: op, StatusCode: status, Message: "response carried no entry"}
	}
	e := w.entry()
	return &e, nil
}
