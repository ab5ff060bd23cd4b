package models

import "time"

// TaskCompletion records the completion state of one DailyTask for a user.
type TaskCompletion struct {
	ID          string     `json:"id"                     bson:"_id"`
	UserID      string     `json:"user_id"                bson:"user_id"`
	TaskID      string     `json:"task_id"                bson:"task_id"`
	TaskDate    string     `json:"task_date"              bson:"task_date"`
	IsCompleted bool       `json:"is_completed"           bson:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"        bson:"notes,omitempty"`
}

// UpdateTaskCompletionRequest is the JSON body for PATCH /tasks/completion.
type UpdateTaskCompletionRequest struct {
	TaskID      string `json:"task_id"`
	IsCompleted bool   `json:"is_completed"`
	Notes       string `json:"notes,omitempty"`
}

// DateRange is an optional inclusive task_date filter. Empty bounds are open.
type DateRange struct {
	StartDate string
	EndDate   string
}

// Contains reports whether date (YYYY-MM-DD) falls inside the range.
func (r DateRange) Contains(date string) bool {
	if r.StartDate != "" && date < r.StartDate {
		return false
	}
	if r.EndDate != "" && date > r.EndDate {
		return false
	}
	return true
}
