package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayush/habit-tracker/backend/internal/logger"
	"github.com/ayush/habit-tracker/backend/internal/models"
)

// MemoryAPI is the hosted memory/storage API client. Records are addressed
// by id or by user id; the service answers 404 for missing records.
type MemoryAPI struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewMemoryAPI(baseURL, apiKey string, timeout time.Duration) *MemoryAPI {
	return &MemoryAPI{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// userRecord is the wire form of a user; unlike models.User it carries the
// password hash.
type userRecord struct {
	ID              string    `json:"id,omitempty"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"password_hash,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	IsSetupComplete bool      `json:"is_setup_complete"`
}

func (u *userRecord) model() *models.User {
	return &models.User{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		PasswordHash:    u.PasswordHash,
		CreatedAt:       u.CreatedAt,
		IsSetupComplete: u.IsSetupComplete,
	}
}

// checkResp returns an error for non-2xx answers. The upstream body is
// included for logs only.
func checkResp(resp *http.Response, method, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("memory-api %s %s: %w: %s", method, path, ErrConflict, string(body))
	}
	return fmt.Errorf("memory-api %s %s returned %d: %s", method, path, resp.StatusCode, string(body))
}

// writeNotFound reports a 404 on a create or upsert, which never means
// absence.
func writeNotFound(method, path string) error {
	return fmt.Errorf("memory-api %s %s returned 404", method, path)
}

// do sends in as JSON and decodes the answer into out. found is false when
// the service answered 404.
func (c *MemoryAPI) do(ctx context.Context, method, path string, in, out any) (found bool, err error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return false, fmt.Errorf("memory-api %s %s: encode: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return false, fmt.Errorf("memory-api %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logger.Debug("[persistence] request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("memory-api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := checkResp(resp, method, path); err != nil {
		return false, err
	}
	if out == nil {
		return true, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("memory-api %s %s: read: %w", method, path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("memory-api %s %s: decode: %w", method, path, err)
	}
	return true, nil
}

func seg(s string) string {
	return url.PathEscape(s)
}

// Users

func (c *MemoryAPI) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	var out userRecord
	found, err := c.do(ctx, http.MethodPost, "/users", userRecord{
		ID:              uuid.NewString(),
		Email:           user.Email,
		Username:        user.Username,
		PasswordHash:    user.PasswordHash,
		CreatedAt:       time.Now().UTC(),
		IsSetupComplete: false,
	}, &out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, writeNotFound(http.MethodPost, "/users")
	}
	created := out.model()
	created.PasswordHash = ""
	return created, nil
}

func (c *MemoryAPI) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var out userRecord
	found, err := c.do(ctx, http.MethodGet, "/users/"+seg(id), nil, &out)
	if err != nil || !found {
		return nil, err
	}
	user := out.model()
	user.PasswordHash = ""
	return user, nil
}

func (c *MemoryAPI) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var out userRecord
	found, err := c.do(ctx, http.MethodGet, "/users/email/"+seg(email)+"/with-password", nil, &out)
	if err != nil || !found {
		return nil, err
	}
	return out.model(), nil
}

func (c *MemoryAPI) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	var out userRecord
	found, err := c.do(ctx, http.MethodPatch, "/users/"+seg(id), update, &out)
	if err != nil || !found {
		return nil, err
	}
	user := out.model()
	user.PasswordHash = ""
	return user, nil
}

// Habits

func (c *MemoryAPI) CreateHabit(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	in := *habit
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	var out models.Habit
	found, err := c.do(ctx, http.MethodPost, "/habits", in, &out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, writeNotFound(http.MethodPost, "/habits")
	}
	return &out, nil
}

func (c *MemoryAPI) ListHabitsByUser(ctx context.Context, userID string) ([]models.Habit, error) {
	habits := []models.Habit{}
	if _, err := c.do(ctx, http.MethodGet, "/habits/user/"+seg(userID), nil, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

func (c *MemoryAPI) GetHabit(ctx context.Context, id string) (*models.Habit, error) {
	var out models.Habit
	found, err := c.do(ctx, http.MethodGet, "/habits/"+seg(id), nil, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (c *MemoryAPI) UpdateHabit(ctx context.Context, id string, update models.HabitUpdate) (*models.Habit, error) {
	var out models.Habit
	found, err := c.do(ctx, http.MethodPatch, "/habits/"+seg(id), update, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (c *MemoryAPI) DeleteHabit(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/habits/"+seg(id), nil, nil)
	return err
}

// Schedules

func (c *MemoryAPI) CreateSchedule(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	in := *schedule
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.ScheduleData == nil {
		in.ScheduleData = []models.DailyTask{}
	}
	if in.LastUpdated.IsZero() {
		in.LastUpdated = time.Now().UTC()
	}
	var out models.Schedule
	found, err := c.do(ctx, http.MethodPost, "/schedules", in, &out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, writeNotFound(http.MethodPost, "/schedules")
	}
	return &out, nil
}

func (c *MemoryAPI) ListSchedulesByUser(ctx context.Context, userID string) ([]models.Schedule, error) {
	schedules := []models.Schedule{}
	if _, err := c.do(ctx, http.MethodGet, "/schedules/user/"+seg(userID), nil, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (c *MemoryAPI) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var out models.Schedule
	found, err := c.do(ctx, http.MethodGet, "/schedules/"+seg(id), nil, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (c *MemoryAPI) UpdateSchedule(ctx context.Context, id string, update models.ScheduleUpdate) (*models.Schedule, error) {
	in := struct {
		models.ScheduleUpdate
		LastUpdated time.Time `json:"last_updated"`
	}{ScheduleUpdate: update, LastUpdated: time.Now().UTC()}

	var out models.Schedule
	found, err := c.do(ctx, http.MethodPatch, "/schedules/"+seg(id), in, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (c *MemoryAPI) DeleteSchedule(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/schedules/"+seg(id), nil, nil)
	return err
}

// Task completions

func (c *MemoryAPI) UpsertTaskCompletion(ctx context.Context, completion *models.TaskCompletion) (*models.TaskCompletion, error) {
	var out models.TaskCompletion
	found, err := c.do(ctx, http.MethodPatch, "/tasks", completion, &out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, writeNotFound(http.MethodPatch, "/tasks")
	}
	return &out, nil
}

func (c *MemoryAPI) ListTaskCompletions(ctx context.Context, userID string, dates models.DateRange) ([]models.TaskCompletion, error) {
	params := url.Values{}
	if dates.StartDate != "" {
		params.Set("start_date", dates.StartDate)
	}
	if dates.EndDate != "" {
		params.Set("end_date", dates.EndDate)
	}
	path := "/tasks/user/" + seg(userID)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	completions := []models.TaskCompletion{}
	if _, err := c.do(ctx, http.MethodGet, path, nil, &completions); err != nil {
		return nil, err
	}
	return completions, nil
}

func (c *MemoryAPI) GetTaskCompletion(ctx context.Context, id string) (*models.TaskCompletion, error) {
	var out models.TaskCompletion
	found, err := c.do(ctx, http.MethodGet, "/tasks/"+seg(id), nil, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// GetTaskCompletionByTask filters the user's completions; the remote API
// has no (user, task) route.
func (c *MemoryAPI) GetTaskCompletionByTask(ctx context.Context, userID, taskID string) (*models.TaskCompletion, error) {
	completions, err := c.ListTaskCompletions(ctx, userID, models.DateRange{})
	if err != nil {
		return nil, err
	}
	for i := range completions {
		if completions[i].TaskID == taskID {
			return &completions[i], nil
		}
	}
	return nil, nil
}
