package types

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultIntensity is used when a draft leaves MoodIntensity unset.
	DefaultIntensity = 5
	MinIntensity     = 1
	MaxIntensity     = 10
	// MaxJournalLength is counted in characters, not bytes.
	MaxJournalLength = 2000
	MaxSleepHours    = 24
)

// MinPasswordLength applies to new passwords only.
const MinPasswordLength = 6

// ValidateDraft checks d and returns a normalized copy: default intensity
// applied and duplicate activities and tags removed. The mood check runs
// first so a draft without a mood always reports field "mood".
func ValidateDraft(d EntryDraft) (EntryDraft, error) {
	if d.Mood == "" {
		return d, NewValidationError("mood", "Please select a mood")
	}
	if !d.Mood.Valid() {
		return d, NewValidationError("mood", fmt.Sprintf("unknown mood %q", d.Mood))
	}
	if d.MoodIntensity == 0 {
		d.MoodIntensity = DefaultIntensity
	}
	if err := validateIntensity(d.MoodIntensity); err != nil {
		return d, err
	}
	if err := validateJournal(d.JournalEntry); err != nil {
		return d, err
	}
	acts, err := normalizeActivities(d.Activities)
	if err != nil {
		return d, err
	}
	d.Activities = acts
	if err := validateSleep(d.SleepHours); err != nil {
		return d, err
	}
	if !d.Weather.Valid() {
		return d, NewValidationError("weather", fmt.Sprintf("unknown weather %q", d.Weather))
	}
	d.Tags = dedupeStrings(d.Tags)
	return d, nil
}

// ValidatePatch checks the fields present in p and returns a normalized copy.
func ValidatePatch(p EntryPatch) (EntryPatch, error) {
	if p.Mood != nil && !p.Mood.Valid() {
		return p, NewValidationError("mood", fmt.Sprintf("unknown mood %q", *p.Mood))
	}
	if p.MoodIntensity != nil {
		if err := validateIntensity(*p.MoodIntensity); err != nil {
			return p, err
		}
	}
	if p.JournalEntry != nil {
		if err := validateJournal(*p.JournalEntry); err != nil {
			return p, err
		}
	}
	if p.Activities != nil {
		acts, err := normalizeActivities(*p.Activities)
		if err != nil {
			return p, err
		}
		if acts == nil {
			acts = []Activity{}
		}
		p.Activities = &acts
	}
	if err := validateSleep(p.SleepHours); err != nil {
		return p, err
	}
	if p.Weather != nil && !p.Weather.Valid() {
		return p, NewValidationError("weather", fmt.Sprintf("unknown weather %q", *p.Weather))
	}
	if p.Tags != nil {
		tags := dedupeStrings(*p.Tags)
		if tags == nil {
			tags = []string{}
		}
		p.Tags = &tags
	}
	return p, nil
}

// ValidateID rejects empty entry ids before they are used in a path.
func ValidateID(id string) error {
	if id == "" {
		return NewValidationError("id", "entry id is required")
	}
	return nil
}

// ValidateProfileUpdate rejects an update that changes nothing or carries a
// malformed email.
func ValidateProfileUpdate(u ProfileUpdate) error {
	if u.Name == "" && u.Email == "" && u.Profile == nil {
		return NewValidationError("profile", "nothing to update")
	}
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		return NewValidationError("email", fmt.Sprintf("invalid email %q", u.Email))
	}
	return nil
}

// ValidatePasswordChange checks both passwords are present and the new one is
// long enough.
func ValidatePasswordChange(p PasswordChange) error {
	if p.CurrentPassword == "" {
		return NewValidationError("currentPassword", "current password is required")
	}
	if utf8.RuneCountInString(p.NewPassword) < MinPasswordLength {
		return NewValidationError("newPassword", fmt.Sprintf("New password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// ValidateMonth rejects a calendar month outside 1..12 or a non-positive year.
func ValidateMonth(year int, month time.Month) error {
	if year <= 0 {
		return NewValidationError("year", fmt.Sprintf("invalid year %d", year))
	}
	if month < time.January || month > time.December {
		return NewValidationError("month", fmt.Sprintf("invalid month %d", int(month)))
	}
	return nil
}

func validateIntensity(v int) error {
	if v < MinIntensity || v > MaxIntensity {
		return NewValidationError("moodIntensity", fmt.Sprintf("must be between %d and %d, got %d", MinIntensity, MaxIntensity, v))
	}
	return nil
}

func validateJournal(s string) error {
	if n := utf8.RuneCountInString(s); n > MaxJournalLength {
		return NewValidationError("journalEntry", fmt.Sprintf("exceeds %d characters (%d)", MaxJournalLength, n))
	}
	return nil
}

func validateSleep(h *float64) error {
	if h == nil {
		return nil
	}
	if *h < 0 || *h > MaxSleepHours {
		return NewValidationError("sleepHours", fmt.Sprintf("must be between 0 and %d", MaxSleepHours))
	}
	return nil
}

func normalizeActivities(in []Activity) ([]Activity, error) {
	if len(in) == 0 {
		return nil, nil
	}
	seen := make(map[Activity]bool, len(in))
	out := make([]Activity, 0, len(in))
	for _, a := range in {
		if !a.Valid() {
			return nil, NewValidationError("activities", fmt.Sprintf("unknown activity %q", a))
		}
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out, nil
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
