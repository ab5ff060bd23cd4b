// Package progress summarizes a schedule snapshot. Everything here is a pure
// function of the schedule and the current date.
package progress

import (
	"time"

	"github.com/ayush/habit-tracker/backend/internal/models"
)

// TaskSummary is the flattened per-task view returned with a report.
type TaskSummary struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
	Priority    int    `json:"priority"`
}

// Report is the progress of one schedule.
type Report struct {
	ScheduleID     string        `json:"schedule_id"`
	TotalTasks     int           `json:"total_tasks"`
	CompletedTasks int           `json:"completed_tasks"`
	MissedTasks    int           `json:"missed_tasks"`
	CompletionRate float64       `json:"completion_rate"`
	Tasks          []TaskSummary `json:"tasks"`
}

// Today is now formatted as a calendar date in now's location.
func Today(now time.Time) string {
	return now.Format(models.DateLayout)
}

// missed reports whether the task is open and its date is strictly before
// today. Dates are compared as YYYY-MM-DD strings.
func missed(task models.DailyTask, today string) bool {
	return !task.IsCompleted && task.Date < today
}

// Compute builds the report. completion_rate is completed/total*100 and 0
// for an empty schedule.
func Compute(schedule *models.Schedule, now time.Time) Report {
	today := Today(now)
	report := Report{
		ScheduleID: schedule.ID,
		TotalTasks: len(schedule.ScheduleData),
		Tasks:      make([]TaskSummary, 0, len(schedule.ScheduleData)),
	}

	for _, task := range schedule.ScheduleData {
		if task.IsCompleted {
			report.CompletedTasks++
		}
		if missed(task, today) {
			report.MissedTasks++
		}
		report.Tasks = append(report.Tasks, TaskSummary{
			ID:          task.ID,
			Date:        task.Date,
			Description: task.TaskDescription,
			IsCompleted: task.IsCompleted,
			Priority:    task.Priority,
		})
	}

	if report.TotalTasks > 0 {
		report.CompletionRate = float64(report.CompletedTasks) / float64(report.TotalTasks) * 100
	}
	return report
}

// MissedDates lists the distinct dates of missed tasks in schedule order.
func MissedDates(schedule *models.Schedule, now time.Time) []string {
	today := Today(now)
	seen := map[string]bool{}
	dates := []string{}
	for _, task := range schedule.ScheduleData {
		if missed(task, today) && !seen[task.Date] {
			seen[task.Date] = true
			dates = append(dates, task.Date)
		}
	}
	return dates
}
