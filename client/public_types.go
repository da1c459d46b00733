package client

import "github.com/moodbuddy/moodbuddy/client/internal/types"

// Public type aliases so SDK consumers can import only the client package.
type (
	// Requests
	EntryDraft      = types.EntryDraft
	EntryPatch      = types.EntryPatch
	EntryFilter     = types.EntryFilter
	LoginRequest    = types.LoginRequest
	RegisterRequest = types.RegisterRequest
	ProfileUpdate   = types.ProfileUpdate
	PasswordChange  = types.PasswordChange

	// Domain entities
	Mood           = types.Mood
	Activity       = types.Activity
	Weather        = types.Weather
	MoodEntry      = types.MoodEntry
	User           = types.User
	Profile        = types.Profile
	CreatedEntry   = types.CreatedEntry
	Streak         = types.Streak
	MoodCount      = types.MoodCount
	TrendPoint     = types.TrendPoint
	ActivityCount  = types.ActivityCount
	AggregateStats = types.AggregateStats

	// Responses
	AuthResponse = types.AuthResponse
)

const (
	MoodExcited = types.MoodExcited
	MoodHappy   = types.MoodHappy
	MoodNeutral = types.MoodNeutral
	MoodSad     = types.MoodSad
	MoodAnxious = types.MoodAnxious
	MoodAngry   = types.MoodAngry
	MoodTired   = types.MoodTired

	ActivityExercise = types.ActivityExercise
	ActivityWork     = types.ActivityWork
	ActivitySocial   = types.ActivitySocial
	ActivityFamily   = types.ActivityFamily
	ActivityHobby    = types.ActivityHobby
	ActivityRest     = types.ActivityRest
	ActivityLearning = types.ActivityLearning
	ActivityNature   = types.ActivityNature

	WeatherSunny  = types.WeatherSunny
	WeatherCloudy = types.WeatherCloudy
	WeatherRainy  = types.WeatherRainy
	WeatherSnowy  = types.WeatherSnowy
	WeatherWindy  = types.WeatherWindy
)

var (
	Moods      = types.Moods
	Activities = types.Activities

	ValidateDraft = types.ValidateDraft
	ValidatePatch = types.ValidatePatch

	ValidateProfileUpdate  = types.ValidateProfileUpdate
	ValidatePasswordChange = types.ValidatePasswordChange
	ValidateMonth          = types.ValidateMonth
)
