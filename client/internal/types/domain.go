package types

import (
	"encoding/json"
	"time"
)

// ------------------------------
// Core Domain Entities
// ------------------------------

// Mood is one of the fixed set of moods a user can log.
type Mood string

const (
	MoodExcited Mood = "excited"
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
	MoodAnxious Mood = "anxious"
	MoodAngry   Mood = "angry"
	MoodTired   Mood = "tired"
)

// Moods lists every valid mood in display order.
var Moods = []Mood{MoodExcited, MoodHappy, MoodNeutral, MoodSad, MoodAnxious, MoodAngry, MoodTired}

// Valid reports whether m is one of Moods.
func (m Mood) Valid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

// Activity is a tag from the fixed activity vocabulary.
type Activity string

const (
	ActivityExercise Activity = "exercise"
	ActivityWork     Activity = "work"
	ActivitySocial   Activity = "social"
	ActivityFamily   Activity = "family"
	ActivityHobby    Activity = "hobby"
	ActivityRest     Activity = "rest"
	ActivityLearning Activity = "learning"
	ActivityNature   Activity = "nature"
)

// Activities lists the activity vocabulary.
var Activities = []Activity{
	ActivityExercise, ActivityWork, ActivitySocial, ActivityFamily,
	ActivityHobby, ActivityRest, ActivityLearning, ActivityNature,
}

// Valid reports whether a is part of the vocabulary.
func (a Activity) Valid() bool {
	for _, v := range Activities {
		if a == v {
			return true
		}
	}
	return false
}

// Weather is an optional tag describing the day's weather.
type Weather string

const (
	WeatherSunny  Weather = "sunny"
	WeatherCloudy Weather = "cloudy"
	WeatherRainy  Weather = "rainy"
	WeatherSnowy  Weather = "snowy"
	WeatherWindy  Weather = "windy"
)

// Valid reports whether w is empty or a known weather tag.
func (w Weather) Valid() bool {
	switch w {
	case "", WeatherSunny, WeatherCloudy, WeatherRainy, WeatherSnowy, WeatherWindy:
		return true
	}
	return false
}

// MoodEntry is one user's record for a single day. ID and CreatedAt are
// assigned by the service.
type MoodEntry struct {
	ID            string     `json:"_id"`
	Date          time.Time  `json:"date"`
	Mood          Mood       `json:"mood"`
	MoodIntensity int        `json:"moodIntensity"`
	JournalEntry  string     `json:"journalEntry,omitempty"`
	Activities    []Activity `json:"activities,omitempty"`
	SleepHours    *float64   `json:"sleepHours,omitempty"`
	Weather       Weather    `json:"weather,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// HasJournal reports whether the entry carries journal text.
func (e MoodEntry) HasJournal() bool { return e.JournalEntry != "" }

// Clone returns a deep copy so cached entries are never aliased by callers.
func (e MoodEntry) Clone() MoodEntry {
	out := e
	if e.Activities != nil {
		out.Activities = append([]Activity(nil), e.Activities...)
	}
	if e.Tags != nil {
		out.Tags = append([]string(nil), e.Tags...)
	}
	if e.SleepHours != nil {
		v := *e.SleepHours
		out.SleepHours = &v
	}
	return out
}

// User is the authenticated account as reported by the service.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Profile   *Profile  `json:"profile,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is the optional personal detail attached to an account.
// DateOfBirth is kept as the service renders it.
type Profile struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

// Streak holds the service's current and longest streak counts.
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// UnmarshalJSON accepts the object form used by stats and the bare number
// (current streak only) some create responses carry.
func (s *Streak) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*s = Streak{Current: n}
		return nil
	}
	type plain Streak
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = Streak(p)
	return nil
}

// CreatedEntry is the stored entry returned by a create, plus the streak the
// service reported alongside it, when it did.
type CreatedEntry struct {
	MoodEntry
	Streak *Streak `json:"streak,omitempty"`
}

// MoodCount is one bucket of the mood distribution.
type MoodCount struct {
	Mood  Mood `json:"mood"`
	Count int  `json:"count"`
}

// TrendPoint is one point of the mood trend series.
type TrendPoint struct {
	Date string  `json:"date"`
	Mood float64 `json:"mood"`
}

// ActivityCount is one bucket of the activity frequency list.
type ActivityCount struct {
	Activity Activity `json:"activity"`
	Count    int      `json:"count"`
}

// AggregateStats is the service-computed summary. The client never derives
// these numbers itself.
type AggregateStats struct {
	TotalEntries      int             `json:"totalEntries"`
	Streak            Streak          `json:"streak"`
	AverageMood       float64         `json:"averageMood"`
	MoodDistribution  []MoodCount     `json:"moodDistribution"`
	MoodTrend         []TrendPoint    `json:"moodTrend"`
	ActivityFrequency []ActivityCount `json:"activityFrequency"`
}
