package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/moodbuddy/moodbuddy/client/internal/types"
)

const entryJSON = `{"_id":"e1","date":"2024-01-03T00:00:00.000Z","mood":"sad","moodIntensity":3,"journalEntry":"meh","activities":["work"],"createdAt":"2024-01-03T08:15:00.000Z"}`

func TestListEntries_DecodesEnvelope(t *testing.T) {
	t.Parallel()
	_, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/mood/entries" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "10" {
			t.Errorf("limit not forwarded: %s", r.URL.RawQuery)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Errorf("missing request id")
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":[`+entryJSON+`]}`)
	})

	entries, err := ListEntries(context.Background(), rc, types.EntryFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListEntries error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ID != "e1" || e.Mood != types.MoodSad || e.MoodIntensity != 3 || !e.HasJournal() {
		t.Fatalf("unexpected entry %+v", e)
	}
	if !e.Date.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", e.Date)
	}
}

func TestCreateEntry_SendsDraft(t *testing.T) {
	t.Parallel()
	_, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("body is not json: %v", err)
		}
		if got["mood"] != "sad" {
			t.Errorf("mood not sent: %s", body)
		}
		writeJSON(w, http.StatusCreated, `{"success":true,"data":`+entryJSON+`}`)
	})

	e, err := CreateEntry(context.Background(), rc, types.EntryDraft{Mood: types.MoodSad, MoodIntensity: 3})
	if err != nil {
		t.Fatalf("CreateEntry error: %v", err)
	}
	if e.ID != "e1" {
		t.Fatalf("unexpected id %q", e.ID)
	}
}

func TestEntries_NonOKStatuses(t *testing.T) {
	t.Parallel()
	_, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			writeJSON(w, http.StatusBadRequest, `{"success":false,"message":"Mood is required"}`)
		case http.MethodGet:
			writeJSON(w, http.StatusInternalServerError, `{"success":false}`)
		case http.MethodPut:
			writeJSON(w, http.StatusNotFound, `{"success":false,"message":"Mood entry not found"}`)
		case http.MethodDelete:
			writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Token is not valid"}`)
		}
	})
	ctx := context.Background()

	_, err := CreateEntry(ctx, rc, types.EntryDraft{Mood: types.MoodHappy})
	var se *types.SyncError
	if !asSync(err, &se) || se.StatusCode != 400 || se.Message != "Mood is required" {
		t.Fatalf("expected 400 SyncError with message, got %v", err)
	}
	if _, err := ListEntries(ctx, rc, types.EntryFilter{}); !types.IsSyncError(err) || types.IsAuthError(err) {
		t.Fatalf("expected plain SyncError for 500, got %v", err)
	}
	if _, err := UpdateEntry(ctx, rc, "e1", types.EntryPatch{}); !types.IsSyncError(err) {
		t.Fatalf("expected SyncError for 404, got %v", err)
	}
	if err := DeleteEntry(ctx, rc, "e1"); !types.IsAuthError(err) {
		t.Fatalf("expected AuthError for 401, got %v", err)
	}
}

func TestEntries_SuccessFalseIsSyncError(t *testing.T) {
	t.Parallel()
	_, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false,"message":"Could not save"}`)
	})
	_, err := CreateEntry(context.Background(), rc, types.EntryDraft{Mood: types.MoodHappy})
	if types.UserMessage(err, "") != "Could not save" {
		t.Fatalf("expected service message, got %v", err)
	}
}

func TestListEntries_DecodeError(t *testing.T) {
	t.Parallel()
	_, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "{bad json")
	})
	if _, err := ListEntries(context.Background(), rc, types.EntryFilter{}); !types.IsSyncError(err) {
		t.Fatalf("expected SyncError for malformed body, got %v", err)
	}
}

func TestEntries_NetworkError(t *testing.T) {
	t.Parallel()
	rc := failingClient()
	if _, err := ListEntries(context.Background(), rc, types.EntryFilter{}); !types.IsSyncError(err) {
		t.Fatalf("expected SyncError for network fault, got %v", err)
	}
	if err := DeleteEntry(context.Background(), rc, "e1"); !types.IsSyncError(err) {
		t.Fatalf("expected SyncError for network fault, got %v", err)
	}
}

func TestEntries_CtxCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request must not be sent with a cancelled context")
	})
	if _, err := ListEntries(ctx, rc, types.EntryFilter{}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestDeleteEntry_NoContentAndEnvelope(t *testing.T) {
	t.Parallel()
	_, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/mood/entries/gone" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, `{"success":true,"message":"Mood entry deleted"}`)
	})
	if err := DeleteEntry(context.Background(), rc, "gone"); err != nil {
		t.Fatalf("204 delete: %v", err)
	}
	if err := DeleteEntry(context.Background(), rc, "e1"); err != nil {
		t.Fatalf("200 delete: %v", err)
	}
}

func TestEntries_EmptyIDRejected(t *testing.T) {
	t.Parallel()
	rc := failingClient()
	if _, err := GetEntry(context.Background(), rc, ""); !types.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if err := DeleteEntry(context.Background(), rc, ""); !types.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestTodayEntry_Absent(t *testing.T) {
	t.Parallel()
	_, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":null}`)
	})
	e, err := TodayEntry(context.Background(), rc)
	if err != nil || e != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", e, err)
	}
}

func asSync(err error, target **types.SyncError) bool {
	se, ok := err.(*types.SyncError)
	if ok {
		*target = se
	}
	return ok
}

func TestCreateEntry_CarriesStreak(t *testing.T) {
	t.Parallel()
	_, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"success":true,"data":`+entryJSON+`,"streak":3}`)
	})
	e, err := CreateEntry(context.Background(), rc, types.EntryDraft{Mood: types.MoodSad})
	if err != nil {
		t.Fatalf("CreateEntry error: %v", err)
	}
	if e.Streak == nil || e.Streak.Current != 3 {
		t.Fatalf("streak not surfaced: %+v", e.Streak)
	}

	_, rc = newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"success":true,"data":`+entryJSON+`}`)
	})
	e, err = CreateEntry(context.Background(), rc, types.EntryDraft{Mood: types.MoodSad})
	if err != nil || e.Streak != nil {
		t.Fatalf("absent streak should stay nil: %+v, %v", e, err)
	}
}

func TestCalendar_SendsYearAndMonth(t *testing.T) {
	t.Parallel()
	_, rc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/mood/calendar" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q := r.URL.Query(); q.Get("year") != "2024" || q.Get("month") != "1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":[`+entryJSON+`]}`)
	})
	entries, err := Calendar(context.Background(), rc, 2024, time.January)
	if err != nil {
		t.Fatalf("Calendar error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "e1" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if _, err := Calendar(context.Background(), failingClient(), 2024, 0); !types.IsValidationError(err) {
		t.Fatalf("month 0 must fail before any request, got %v", err)
	}
}
