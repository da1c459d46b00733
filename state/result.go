package state

import "github.com/moodbuddy/moodbuddy/client"

// Result is the value a UI receives for a mutation: success flag plus a
// message fit for display. Failures never escape as panics.
type Result struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Entry   *client.MoodEntry `json:"entry,omitempty"`
	Streak  *client.Streak    `json:"streak,omitempty"`
}

// ResultOf folds an operation outcome into a Result. fallback is shown when
// the error carries no service message.
func ResultOf(entry *client.MoodEntry, err error, fallback string) Result {
	if err != nil {
		return Result{Success: false, Message: client.UserMessage(err, fallback)}
	}
	return Result{Success: true, Entry: entry}
}

// CreatedResult is ResultOf for a create, carrying the reported streak.
func CreatedResult(created *client.CreatedEntry, err error, fallback string) Result {
	if err != nil || created == nil {
		return ResultOf(nil, err, fallback)
	}
	r := ResultOf(&created.MoodEntry, nil, fallback)
	r.Streak = created.Streak
	return r
}
