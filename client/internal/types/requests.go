package types

import (
	"strconv"
	"time"
)

// ------------------------------
// Request Types
// ------------------------------

// EntryDraft holds the fields of a new entry. Mood is required. A zero
// MoodIntensity is sent as the default of 5.
type EntryDraft struct {
	Date          time.Time  `json:"date"`
	Mood          Mood       `json:"mood"`
	MoodIntensity int        `json:"moodIntensity"`
	JournalEntry  string     `json:"journalEntry,omitempty"`
	Activities    []Activity `json:"activities,omitempty"`
	SleepHours    *float64   `json:"sleepHours,omitempty"`
	Weather       Weather    `json:"weather,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
}

// EntryPatch carries the fields to change on an existing entry. Nil fields
// are left untouched by the service.
type EntryPatch struct {
	Date          *time.Time  `json:"date,omitempty"`
	Mood          *Mood       `json:"mood,omitempty"`
	MoodIntensity *int        `json:"moodIntensity,omitempty"`
	JournalEntry  *string     `json:"journalEntry,omitempty"`
	Activities    *[]Activity `json:"activities,omitempty"`
	SleepHours    *float64    `json:"sleepHours,omitempty"`
	Weather       *Weather    `json:"weather,omitempty"`
	Tags          *[]string   `json:"tags,omitempty"`
}

// EntryFilter narrows a bulk load. Zero values are omitted from the query.
type EntryFilter struct {
	StartDate time.Time
	EndDate   time.Time
	Mood      Mood
	Limit     int
	Page      int
}

// Query renders the filter as query parameters.
func (f EntryFilter) Query() map[string]string {
	q := map[string]string{}
	if !f.StartDate.IsZero() {
		q["startDate"] = f.StartDate.UTC().Format(time.RFC3339)
	}
	if !f.EndDate.IsZero() {
		q["endDate"] = f.EndDate.UTC().Format(time.RFC3339)
	}
	if f.Mood != "" {
		q["mood"] = string(f.Mood)
	}
	if f.Limit > 0 {
		q["limit"] = strconv.Itoa(f.Limit)
	}
	if f.Page > 0 {
		q["page"] = strconv.Itoa(f.Page)
	}
	return q
}

// LoginRequest holds login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest holds the fields of a new account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries the account fields to change. Empty fields are not
// sent.
type ProfileUpdate struct {
	Name    string   `json:"name,omitempty"`
	Email   string   `json:"email,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
}

// PasswordChange holds the current password and its replacement.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
