// Package store holds the persistence backends. Every getter returns
// (nil, nil) when the record does not exist, so callers can test for
// absence without inspecting errors.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ayush/habit-tracker/backend/internal/models"
)

// ErrConflict reports a uniqueness violation, such as a duplicate email.
var ErrConflict = errors.New("store: conflict")

type Users interface {
	// CreateUser persists user (Email, Username, PasswordHash) and returns
	// the stored record with id and created_at filled.
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUserByEmail includes the password hash.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*models.User, error)
}

type Habits interface {
	CreateHabit(ctx context.Context, habit *models.Habit) (*models.Habit, error)
	ListHabitsByUser(ctx context.Context, userID string) ([]models.Habit, error)
	GetHabit(ctx context.Context, id string) (*models.Habit, error)
	UpdateHabit(ctx context.Context, id string, update models.HabitUpdate) (*models.Habit, error)
	DeleteHabit(ctx context.Context, id string) error
}

type Schedules interface {
	CreateSchedule(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error)
	ListSchedulesByUser(ctx context.Context, userID string) ([]models.Schedule, error)
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	UpdateSchedule(ctx context.Context, id string, update models.ScheduleUpdate) (*models.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

type TaskCompletions interface {
	// UpsertTaskCompletion creates or overwrites the record for
	// (UserID, TaskID).
	UpsertTaskCompletion(ctx context.Context, completion *models.TaskCompletion) (*models.TaskCompletion, error)
	ListTaskCompletions(ctx context.Context, userID string, dates models.DateRange) ([]models.TaskCompletion, error)
	GetTaskCompletion(ctx context.Context, id string) (*models.TaskCompletion, error)
	// GetTaskCompletionByTask looks the record up by its (userID, taskID) key.
	GetTaskCompletionByTask(ctx context.Context, userID, taskID string) (*models.TaskCompletion, error)
}

// Store is the full persistence surface used by the handlers.
type Store interface {
	Users
	Habits
	Schedules
	TaskCompletions
}

// ApplyUserUpdate copies the provided fields onto user.
func ApplyUserUpdate(user *models.User, update models.UserUpdate) {
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.IsSetupComplete != nil {
		user.IsSetupComplete = *update.IsSetupComplete
	}
}

// ApplyHabitUpdate copies the provided fields onto habit.
func ApplyHabitUpdate(habit *models.Habit, update models.HabitUpdate) {
	if update.HabitName != nil {
		habit.HabitName = *update.HabitName
	}
	if update.UserHistory != nil {
		habit.UserHistory = *update.UserHistory
	}
}

// ApplyScheduleUpdate copies the provided fields onto schedule and stamps
// LastUpdated.
func ApplyScheduleUpdate(schedule *models.Schedule, update models.ScheduleUpdate, now time.Time) {
	if update.ScheduleData != nil {
		schedule.ScheduleData = append([]models.DailyTask(nil), (*update.ScheduleData)...)
	}
	if update.GeneratedByAI != nil {
		schedule.GeneratedByAI = *update.GeneratedByAI
	}
	if update.StartDate != nil {
		schedule.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		schedule.EndDate = *update.EndDate
	}
	schedule.LastUpdated = now
}
