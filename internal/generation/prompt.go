package generation

import (
	"fmt"
	"strings"
	"time"

	"github.com/ayush/habit-tracker/backend/internal/models"
)

const systemPrompt = "You are an expert habit formation coach and schedule optimizer. " +
	"You help users create realistic, achievable habit schedules and adapt them based on their progress."

// Progress is the state reported when asking for a reschedule.
type Progress struct {
	CompletedTasks int
	TotalTasks     int
	MissedDates    []string
}

// Request describes the schedule to generate. Progress is only read by
// Reschedule.
type Request struct {
	HabitName   string
	UserHistory string
	StartDate   string
	EndDate     string
	Progress    *Progress
}

// TotalDays is the inclusive number of days between start and end, or 0
// when either date is invalid.
func TotalDays(start, end string) int {
	s, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return 0
	}
	e, err := time.Parse(models.DateLayout, end)
	if err != nil {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

const taskFormat = `OUTPUT FORMAT (JSON only):
{
  "tasks": [
    {
      "id": "unique-id",
      "date": "YYYY-MM-DD",
      "task_description": "Specific task description",
      "is_completed": false,
      "priority": 1-5
    }
  ],
  "reasoning": "Brief explanation of the %s strategy",
  "recommendations": [%s]
}`

func historyLine(history string) string {
	if strings.TrimSpace(history) == "" {
		return ""
	}
	return "USER HISTORY: " + history + "\n"
}

func schedulePrompt(req Request) string {
	days := TotalDays(req.StartDate, req.EndDate)

	var b strings.Builder
	b.WriteString("Create a personalized habit schedule for the following:\n\n")
	fmt.Fprintf(&b, "HABIT: %s\n", req.HabitName)
	fmt.Fprintf(&b, "DURATION: %d days (%s to %s)\n", days, req.StartDate, req.EndDate)
	b.WriteString(historyLine(req.UserHistory))
	b.WriteString("\nREQUIREMENTS:\n")
	fmt.Fprintf(&b, "1. Create %d daily tasks that progressively build the habit\n", days)
	b.WriteString("2. Start with easy, achievable tasks and gradually increase difficulty\n")
	b.WriteString("3. Consider the user's history and any mentioned challenges\n")
	b.WriteString("4. Make tasks specific, measurable, and time-bound\n")
	b.WriteString("5. Include variety to maintain engagement\n")
	b.WriteString("6. Account for potential setbacks and provide flexibility\n\n")
	fmt.Fprintf(&b, taskFormat, "schedule", `"Tip 1", "Tip 2", "Tip 3"`)
	b.WriteString("\n\nGenerate the schedule now:")
	return b.String()
}

func reschedulePrompt(req Request) string {
	days := TotalDays(req.StartDate, req.EndDate)
	progress := Progress{TotalTasks: days}
	if req.Progress != nil {
		progress = *req.Progress
	}
	missed := "None"
	if len(progress.MissedDates) > 0 {
		missed = strings.Join(progress.MissedDates, ", ")
	}

	var b strings.Builder
	b.WriteString("Reschedule the remaining habit tasks based on current progress:\n\n")
	fmt.Fprintf(&b, "HABIT: %s\n", req.HabitName)
	fmt.Fprintf(&b, "ORIGINAL DURATION: %d days (%s to %s)\n", days, req.StartDate, req.EndDate)
	fmt.Fprintf(&b, "CURRENT PROGRESS: %d/%d tasks completed\n", progress.CompletedTasks, progress.TotalTasks)
	fmt.Fprintf(&b, "MISSED DATES: %s\n", missed)
	b.WriteString(historyLine(req.UserHistory))
	b.WriteString("\nREQUIREMENTS:\n")
	b.WriteString("1. Redistribute remaining tasks across the remaining days\n")
	b.WriteString("2. Maintain the progressive difficulty curve\n")
	b.WriteString("3. Account for the user's current progress and missed days\n")
	b.WriteString("4. Adjust task difficulty based on performance\n")
	b.WriteString("5. Provide encouragement and realistic expectations\n")
	b.WriteString("6. Don't overload any single day\n\n")
	fmt.Fprintf(&b, taskFormat, "rescheduling", `"Encouragement tip 1", "Strategy tip 2", "Motivation tip 3"`)
	b.WriteString("\n\nGenerate the rescheduled plan now:")
	return b.String()
}
