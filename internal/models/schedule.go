package models

import "time"

// DateLayout is the calendar date format used for every date field.
const DateLayout = "2006-01-02"

// DailyTask is one unit of habit work for a calendar day. It only exists
// embedded in a Schedule.
type DailyTask struct {
	ID              string     `json:"id"                     bson:"id"`
	Date            string     `json:"date"                   bson:"date"`
	TaskDescription string     `json:"task_description"       bson:"task_description"`
	IsCompleted     bool       `json:"is_completed"           bson:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Priority        int        `json:"priority"               bson:"priority"`
}

// Schedule is a habit plan over an inclusive date range.
type Schedule struct {
	ID            string      `json:"id"              bson:"_id"`
	UserID        string      `json:"user_id"         bson:"user_id"`
	HabitID       string      `json:"habit_id"        bson:"habit_id"`
	ScheduleData  []DailyTask `json:"schedule_data"   bson:"schedule_data"`
	GeneratedByAI bool        `json:"generated_by_ai" bson:"generated_by_ai"`
	LastUpdated   time.Time   `json:"last_updated"    bson:"last_updated"`
	StartDate     string      `json:"start_date"      bson:"start_date"`
	EndDate       string      `json:"end_date"        bson:"end_date"`
}

// FindTask returns the index of the embedded task with the given id, or -1.
func (s *Schedule) FindTask(taskID string) int {
	for i := range s.ScheduleData {
		if s.ScheduleData[i].ID == taskID {
			return i
		}
	}
	return -1
}

// CreateScheduleRequest is the JSON body for POST /schedules.
type CreateScheduleRequest struct {
	HabitID     string `json:"habit_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	UserHistory string `json:"user_history,omitempty"`
}

// ScheduleUpdate is a partial schedule update. LastUpdated is always
// refreshed by the store.
type ScheduleUpdate struct {
	ScheduleData  *[]DailyTask `json:"schedule_data,omitempty"`
	GeneratedByAI *bool        `json:"generated_by_ai,omitempty"`
	StartDate     *string      `json:"start_date,omitempty"`
	EndDate       *string      `json:"end_date,omitempty"`
}

// CurrentProgress is the caller-reported progress sent with a reschedule.
type CurrentProgress struct {
	CompletedTasks int `json:"completed_tasks"`
	TotalTasks     int `json:"total_tasks"`
}

// RescheduleRequest is the JSON body for POST /schedules/{id}/reschedule.
type RescheduleRequest struct {
	MissedDates     []string         `json:"missed_dates,omitempty"`
	CurrentProgress *CurrentProgress `json:"current_progress,omitempty"`
}

// GeneratedSchedule is a persisted schedule plus the generator's one-off
// commentary, which is returned once and never stored.
type GeneratedSchedule struct {
	Schedule
	AIReasoning       string   `json:"ai_reasoning"`
	AIRecommendations []string `json:"ai_recommendations"`
}
