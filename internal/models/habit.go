package models

import "time"

// Habit is owned by exactly one user.
type Habit struct {
	ID          string    `json:"id"                     bson:"_id"`
	UserID      string    `json:"user_id"                bson:"user_id"`
	HabitName   string    `json:"habit_name"             bson:"habit_name"`
	UserHistory string    `json:"user_history,omitempty" bson:"user_history,omitempty"`
	CreatedAt   time.Time `json:"created_at"             bson:"created_at"`
}

// CreateHabitRequest is the JSON body for POST /habits.
type CreateHabitRequest struct {
	HabitName   string `json:"habit_name"`
	UserHistory string `json:"user_history,omitempty"`
}

// HabitUpdate is the JSON body for PATCH /habits/{id}.
type HabitUpdate struct {
	HabitName   *string `json:"habit_name,omitempty"`
	UserHistory *string `json:"user_history,omitempty"`
}
