package models

import "time"

// Transcript is the archived prompt and raw model output behind one
// generate or reschedule call.
type Transcript struct {
	Kind       string    `json:"kind"`
	ScheduleID string    `json:"schedule_id"`
	HabitID    string    `json:"habit_id"`
	Model      string    `json:"model"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	TranscriptGenerate   = "generate"
	TranscriptReschedule = "reschedule"
)
