package generation

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayush/habit-tracker/backend/internal/models"
)

// ErrParse means the model output held no JSON object or no tasks array.
var ErrParse = errors.New("generation: unparsable schedule response")

const (
	defaultPriority  = 3
	defaultReasoning = "Schedule generated based on habit formation principles"
)

var defaultRecommendations = []string{"Stay consistent", "Track your progress", "Be patient with yourself"}

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Decoded is the schedule extracted from a model response.
type Decoded struct {
	Tasks           []models.DailyTask
	Reasoning       string
	Recommendations []string
}

// extractObject finds the JSON object in raw: the whole text, then a fenced
// code block, then the span from the first '{' to the last '}'.
func extractObject(raw string) (map[string]any, bool) {
	candidates := []string{strings.TrimSpace(raw)}
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}

	for _, c := range candidates {
		var obj map[string]any
		if err := json.Unmarshal([]byte(c), &obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

// Decode turns a free-form model response into tasks dated within
// [start, end]. Missing optional fields are filled with defaults; only a
// response without a JSON object or a tasks array fails, with ErrParse.
func Decode(raw, start, end string) (*Decoded, error) {
	obj, ok := extractObject(raw)
	if !ok {
		return nil, ErrParse
	}
	items, ok := obj["tasks"].([]any)
	if !ok {
		return nil, ErrParse
	}

	seen := map[string]bool{}
	tasks := make([]models.DailyTask, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		task, ok := decodeTask(fields, start, end)
		if !ok {
			continue
		}
		if seen[task.ID] {
			task.ID = uuid.NewString()
		}
		seen[task.ID] = true
		tasks = append(tasks, task)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Date < tasks[j].Date })

	out := &Decoded{Tasks: tasks, Reasoning: defaultReasoning}
	if s, ok := obj["reasoning"].(string); ok && strings.TrimSpace(s) != "" {
		out.Reasoning = s
	}
	if list, ok := obj["recommendations"].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				out.Recommendations = append(out.Recommendations, s)
			}
		}
	}
	if len(out.Recommendations) == 0 {
		out.Recommendations = append([]string(nil), defaultRecommendations...)
	}
	return out, nil
}

// decodeTask reads one task; ok is false when its date is unusable.
func decodeTask(fields map[string]any, start, end string) (models.DailyTask, bool) {
	date, _ := fields["date"].(string)
	date = strings.TrimSpace(date)
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return models.DailyTask{}, false
	}
	if (start != "" && date < start) || (end != "" && date > end) {
		return models.DailyTask{}, false
	}

	task := models.DailyTask{Date: date, Priority: defaultPriority}

	if id, ok := fields["id"].(string); ok {
		if parsed, err := uuid.Parse(id); err == nil && len(id) == 36 {
			task.ID = parsed.String()
		}
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	if desc, ok := fields["task_description"].(string); ok {
		task.TaskDescription = strings.TrimSpace(desc)
	}
	if done, ok := fields["is_completed"].(bool); ok {
		task.IsCompleted = done
	}
	if p, ok := fields["priority"].(float64); ok {
		task.Priority = clampPriority(int(p))
	}
	return task, true
}

func clampPriority(p int) int {
	switch {
	case p < 1:
		return 1
	case p > 5:
		return 5
	default:
		return p
	}
}
