package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ayush/habit-tracker/backend/internal/auth"
	"github.com/ayush/habit-tracker/backend/internal/generation"
	"github.com/ayush/habit-tracker/backend/internal/models"
	"github.com/ayush/habit-tracker/backend/internal/response"
	"github.com/ayush/habit-tracker/backend/internal/store/storetest"
)

// dailyGenerator returns one task per day of the requested range.
type dailyGenerator struct {
	mu   sync.Mutex
	last generation.Request
	err  error
}

func (g *dailyGenerator) plan(req generation.Request) (*generation.Result, error) {
	g.mu.Lock()
	g.last = req
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}

	start, _ := time.Parse(models.DateLayout, req.StartDate)
	var tasks []models.DailyTask
	for i := 0; i < generation.TotalDays(req.StartDate, req.EndDate); i++ {
		tasks = append(tasks, models.DailyTask{
			ID:              uuid.NewString(),
			Date:            start.AddDate(0, 0, i).Format(models.DateLayout),
			TaskDescription: fmt.Sprintf("%s, day %d", req.HabitName, i+1),
			Priority:        3,
		})
	}
	return &generation.Result{
		Tasks:           tasks,
		Reasoning:       "Start small",
		Recommendations: []string{"Stay consistent"},
		Prompt:          "prompt for " + req.HabitName,
		RawResponse:     "{}",
		Model:           "test-model",
	}, nil
}

func (g *dailyGenerator) Generate(_ context.Context, req generation.Request) (*generation.Result, error) {
	return g.plan(req)
}

func (g *dailyGenerator) Reschedule(_ context.Context, req generation.Request) (*generation.Result, error) {
	return g.plan(req)
}

type memTranscripts struct {
	mu   sync.Mutex
	byID map[string]models.Transcript
}

func (m *memTranscripts) SaveTranscript(_ context.Context, userID string, t *models.Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[userID+"/"+t.ScheduleID] = *t
	return nil
}

func (m *memTranscripts) LoadTranscript(_ context.Context, userID, scheduleID string) (*models.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[userID+"/"+scheduleID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memTranscripts) DeleteTranscript(_ context.Context, userID, scheduleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, userID+"/"+scheduleID)
	return nil
}

type fixture struct {
	store       *storetest.Memory
	generator   *dailyGenerator
	transcripts *memTranscripts
	handler     *Handler
	router      http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:       storetest.NewMemory(),
		generator:   &dailyGenerator{},
		transcripts: &memTranscripts{byID: map[string]models.Transcript{}},
	}
	f.handler = NewHandler(f.store, f.generator, f.transcripts)
	f.handler.now = func() time.Time { return time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := r.Header.Get("X-User"); user != "" {
				r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: user}))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Post("/schedules", f.handler.Create)
	r.Get("/schedules", f.handler.List)
	r.Get("/schedules/{id}", f.handler.Get)
	r.Patch("/schedules/{id}", f.handler.Update)
	r.Delete("/schedules/{id}", f.handler.Delete)
	r.Post("/schedules/{id}/reschedule", f.handler.Reschedule)
	r.Get("/schedules/{id}/transcript", f.handler.Transcript)
	f.router = r
	return f
}

func (f *fixture) habit(t *testing.T, owner, name, history string) *models.Habit {
	t.Helper()
	h, err := f.store.CreateHabit(context.Background(), &models.Habit{UserID: owner, HabitName: name, UserHistory: history})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	return h
}

type envelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Error   response.ErrorCode `json:"error"`
	Data    json.RawMessage    `json:"data"`
}

func (f *fixture) do(t *testing.T, method, path, user, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v (body %q)", method, path, err, rec.Body.String())
	}
	return rec.Code, env
}

func (f *fixture) createSchedule(t *testing.T, user, habitID string) models.GeneratedSchedule {
	t.Helper()
	body := fmt.Sprintf(`{"habit_id":%q,"start_date":"2024-01-01","end_date":"2024-01-05"}`, habitID)
	status, env := f.do(t, http.MethodPost, "/schedules", user, body)
	if status != http.StatusCreated {
		t.Fatalf("create schedule = %d %+v", status, env)
	}
	var out models.GeneratedSchedule
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode schedule: %v", err)
	}
	return out
}

func TestCreateScheduleRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	habit := f.habit(t, "alice", "Drink water", "forgets in the afternoon")

	created := f.createSchedule(t, "alice", habit.ID)
	if !created.GeneratedByAI || created.AIReasoning != "Start small" || len(created.AIRecommendations) != 1 {
		t.Fatalf("created = %+v", created)
	}
	if len(created.ScheduleData) != 5 || created.ScheduleData[0].Date != "2024-01-01" || created.ScheduleData[4].Date != "2024-01-05" {
		t.Fatalf("tasks = %+v", created.ScheduleData)
	}
	if f.generator.last.UserHistory != "forgets in the afternoon" {
		t.Fatalf("history passed to generator = %q", f.generator.last.UserHistory)
	}

	status, env := f.do(t, http.MethodGet, "/schedules/"+created.ID, "alice", "")
	var fetched models.Schedule
	_ = json.Unmarshal(env.Data, &fetched)
	if status != http.StatusOK || len(fetched.ScheduleData) != len(created.ScheduleData) {
		t.Fatalf("get = %d %+v", status, fetched)
	}
	for i := range fetched.ScheduleData {
		if fetched.ScheduleData[i].Date != created.ScheduleData[i].Date {
			t.Fatalf("task %d date %s != %s", i, fetched.ScheduleData[i].Date, created.ScheduleData[i].Date)
		}
	}

	status, env = f.do(t, http.MethodGet, "/schedules/"+created.ID+"/transcript", "alice", "")
	var transcript models.Transcript
	_ = json.Unmarshal(env.Data, &transcript)
	if status != http.StatusOK || transcript.Kind != models.TranscriptGenerate || transcript.Model != "test-model" {
		t.Fatalf("transcript = %d %+v", status, transcript)
	}
}

func TestCreateScheduleHistoryOverride(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	habit := f.habit(t, "alice", "Read", "stored history")
	body := fmt.Sprintf(`{"habit_id":%q,"start_date":"2024-01-01","end_date":"2024-01-02","user_history":"fresh history"}`, habit.ID)
	if status, env := f.do(t, http.MethodPost, "/schedules", "alice", body); status != http.StatusCreated {
		t.Fatalf("create = %d %+v", status, env)
	}
	if f.generator.last.UserHistory != "fresh history" {
		t.Fatalf("history = %q, want override", f.generator.last.UserHistory)
	}
}

func TestCreateScheduleForeignHabit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	habit := f.habit(t, "alice", "Read", "")
	body := fmt.Sprintf(`{"habit_id":%q,"start_date":"2024-01-01","end_date":"2024-01-02"}`, habit.ID)

	status, env := f.do(t, http.MethodPost, "/schedules", "mallory", body)
	if status != http.StatusNotFound || env.Error != response.CodeHabitNotFound {
		t.Fatalf("foreign habit = %d %+v", status, env)
	}
	schedules, _ := f.store.ListSchedulesByUser(context.Background(), "mallory")
	if len(schedules) != 0 {
		t.Fatalf("schedule stored for foreign habit: %+v", schedules)
	}
}

func TestCreateScheduleGenerationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode response.ErrorCode
	}{
		{name: "parse", err: fmt.Errorf("generation: decode: %w", generation.ErrParse), wantCode: response.CodeGenerationParse},
		{name: "transport", err: fmt.Errorf("generation: HTTP 502"), wantCode: response.CodeCreateSchedule},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.generator.err = tc.err
			habit := f.habit(t, "alice", "Read", "")
			body := fmt.Sprintf(`{"habit_id":%q,"start_date":"2024-01-01","end_date":"2024-01-02"}`, habit.ID)

			status, env := f.do(t, http.MethodPost, "/schedules", "alice", body)
			if status != http.StatusInternalServerError || env.Error != tc.wantCode {
				t.Fatalf("create = %d %+v, want %s", status, env, tc.wantCode)
			}
			if strings.Contains(env.Message, "502") {
				t.Fatalf("internal error leaked: %q", env.Message)
			}
		})
	}
}

func TestRescheduleKeepsRangeAndDerivesProgress(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	habit := f.habit(t, "alice", "Drink water", "")
	created := f.createSchedule(t, "alice", habit.ID)

	tasks := created.ScheduleData
	tasks[0].IsCompleted = true
	if _, err := f.store.UpdateSchedule(context.Background(), created.ID, models.ScheduleUpdate{ScheduleData: &tasks}); err != nil {
		t.Fatalf("UpdateSchedule() error = %v", err)
	}

	status, env := f.do(t, http.MethodPost, "/schedules/"+created.ID+"/reschedule", "alice", "")
	if status != http.StatusOK {
		t.Fatalf("reschedule = %d %+v", status, env)
	}
	var out models.GeneratedSchedule
	_ = json.Unmarshal(env.Data, &out)
	if out.StartDate != "2024-01-01" || out.EndDate != "2024-01-05" || !out.GeneratedByAI {
		t.Fatalf("rescheduled = %+v", out)
	}

	got := f.generator.last.Progress
	if got == nil || got.CompletedTasks != 1 || got.TotalTasks != 5 {
		t.Fatalf("progress = %+v", got)
	}
	if strings.Join(got.MissedDates, ",") != "2024-01-02,2024-01-03" {
		t.Fatalf("missed dates = %v", got.MissedDates)
	}

	status, env = f.do(t, http.MethodPost, "/schedules/"+created.ID+"/reschedule", "alice",
		`{"missed_dates":["2024-01-03"],"current_progress":{"completed_tasks":2,"total_tasks":5}}`)
	if status != http.StatusOK {
		t.Fatalf("reschedule with body = %d %+v", status, env)
	}
	got = f.generator.last.Progress
	if got.CompletedTasks != 2 || len(got.MissedDates) != 1 || got.MissedDates[0] != "2024-01-03" {
		t.Fatalf("explicit progress = %+v", got)
	}
}

func TestUpdateAndDeleteSchedule(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	habit := f.habit(t, "alice", "Read", "")
	created := f.createSchedule(t, "alice", habit.ID)

	status, env := f.do(t, http.MethodPatch, "/schedules/"+created.ID, "alice", `{"end_date":"2023-12-01"}`)
	if status != http.StatusBadRequest || env.Error != response.CodeValidation {
		t.Fatalf("inverted range = %d %+v", status, env)
	}

	outside := fmt.Sprintf(`{"schedule_data":[{"id":%q,"date":"2024-02-01","task_description":"Late","priority":3}]}`, created.ScheduleData[0].ID)
	status, env = f.do(t, http.MethodPatch, "/schedules/"+created.ID, "alice", outside)
	if status != http.StatusBadRequest || env.Error != response.CodeValidation {
		t.Fatalf("task outside range = %d %+v", status, env)
	}
	status, env = f.do(t, http.MethodPatch, "/schedules/"+created.ID, "alice", `{"end_date":"2024-01-03"}`)
	if status != http.StatusBadRequest || env.Error != response.CodeValidation {
		t.Fatalf("range shrunk past tasks = %d %+v", status, env)
	}

	status, env = f.do(t, http.MethodPatch, "/schedules/"+created.ID, "alice", `{"end_date":"2024-01-10","generated_by_ai":false}`)
	var updated models.Schedule
	_ = json.Unmarshal(env.Data, &updated)
	if status != http.StatusOK || updated.EndDate != "2024-01-10" || updated.GeneratedByAI {
		t.Fatalf("update = %d %+v", status, updated)
	}

	status, env = f.do(t, http.MethodDelete, "/schedules/"+created.ID, "mallory", "")
	if status != http.StatusNotFound || env.Error != response.CodeScheduleNotFound {
		t.Fatalf("foreign delete = %d %+v", status, env)
	}

	if status, env = f.do(t, http.MethodDelete, "/schedules/"+created.ID, "alice", ""); status != http.StatusOK {
		t.Fatalf("delete = %d %+v", status, env)
	}
	if tr, _ := f.transcripts.LoadTranscript(context.Background(), "alice", created.ID); tr != nil {
		t.Fatalf("transcript survived schedule deletion")
	}
	status, env = f.do(t, http.MethodGet, "/schedules/"+created.ID+"/transcript", "alice", "")
	if status != http.StatusNotFound || env.Error != response.CodeScheduleNotFound {
		t.Fatalf("transcript of deleted schedule = %d %+v", status, env)
	}
}

func TestTranscriptDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.handler.transcripts = nil
	habit := f.habit(t, "alice", "Read", "")
	created := f.createSchedule(t, "alice", habit.ID)

	status, env := f.do(t, http.MethodGet, "/schedules/"+created.ID+"/transcript", "alice", "")
	if status != http.StatusNotFound || env.Error != response.CodeTranscriptNotFound {
		t.Fatalf("transcript = %d %+v", status, env)
	}
}
