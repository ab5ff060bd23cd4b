package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayush/habit-tracker/backend/internal/models"
)

func newTestAPI(t *testing.T, h http.HandlerFunc) *MemoryAPI {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewMemoryAPI(srv.URL+"/", "secret-key", 5*time.Second)
}

func TestMemoryAPIGetHabitSendsKeyAndDecodes(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Method != http.MethodGet || r.URL.Path != "/habits/h-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(models.Habit{ID: "h-1", UserID: "u-1", HabitName: "Read"})
	})

	habit, err := api.GetHabit(context.Background(), "h-1")
	if err != nil {
		t.Fatalf("GetHabit() error = %v", err)
	}
	if habit == nil || habit.HabitName != "Read" || habit.UserID != "u-1" {
		t.Fatalf("GetHabit() = %+v", habit)
	}
}

func TestMemoryAPINotFoundIsAbsence(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	habit, err := api.GetHabit(context.Background(), "missing")
	if err != nil || habit != nil {
		t.Fatalf("GetHabit() = %v, %v; want nil, nil", habit, err)
	}
	user, err := api.GetUserByEmail(context.Background(), "a@b.co")
	if err != nil || user != nil {
		t.Fatalf("GetUserByEmail() = %v, %v; want nil, nil", user, err)
	}
}

func TestMemoryAPIConflictMapsToErrConflict(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := api.CreateUser(context.Background(), &models.User{Email: "a@b.co", Username: "abc", PasswordHash: "x"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
	}
}

func TestMemoryAPIServerErrorIsError(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	if _, err := api.ListHabitsByUser(context.Background(), "u-1"); err == nil {
		t.Fatal("ListHabitsByUser() error = nil, want error")
	}
}

func TestMemoryAPICreateUserHidesHashAndAssignsID(t *testing.T) {
	t.Parallel()

	var sent userRecord
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(sent)
	})

	user, err := api.CreateUser(context.Background(), &models.User{Email: "a@b.co", Username: "abc", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if sent.ID == "" || sent.PasswordHash != "hash" || sent.IsSetupComplete {
		t.Fatalf("sent record = %+v", sent)
	}
	if user.ID != sent.ID || user.PasswordHash != "" {
		t.Fatalf("CreateUser() = %+v", user)
	}
}

func TestMemoryAPIListTaskCompletionsQuery(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/user/u-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("start_date") != "2024-01-01" || q.Get("end_date") != "2024-01-31" {
			t.Errorf("query = %v", q)
		}
		_, _ = w.Write([]byte(`[{"id":"c-1","user_id":"u-1","task_id":"t-1","task_date":"2024-01-02","is_completed":true}]`))
	})

	got, err := api.ListTaskCompletions(context.Background(), "u-1", models.DateRange{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	if err != nil {
		t.Fatalf("ListTaskCompletions() error = %v", err)
	}
	if len(got) != 1 || got[0].TaskID != "t-1" || !got[0].IsCompleted {
		t.Fatalf("ListTaskCompletions() = %+v", got)
	}
}

func TestMemoryAPIWriteNotFoundIsError(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	ctx := context.Background()

	if habit, err := api.CreateHabit(ctx, &models.Habit{UserID: "u-1", HabitName: "Read"}); err == nil || habit != nil {
		t.Fatalf("CreateHabit() = %+v, %v; want error", habit, err)
	}
	if schedule, err := api.CreateSchedule(ctx, &models.Schedule{UserID: "u-1", HabitID: "h-1"}); err == nil || schedule != nil {
		t.Fatalf("CreateSchedule() = %+v, %v; want error", schedule, err)
	}
	if c, err := api.UpsertTaskCompletion(ctx, &models.TaskCompletion{UserID: "u-1", TaskID: "t-1"}); err == nil || c != nil {
		t.Fatalf("UpsertTaskCompletion() = %+v, %v; want error", c, err)
	}
	if user, err := api.CreateUser(ctx, &models.User{Email: "a@b.co", Username: "abc", PasswordHash: "hash"}); err == nil || user != nil {
		t.Fatalf("CreateUser() = %+v, %v; want error", user, err)
	}
}

func TestMemoryAPIGetTaskCompletionByTask(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/user/u-1" || r.URL.RawQuery != "" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"id":"c-1","user_id":"u-1","task_id":"t-1","task_date":"2024-01-02"},{"id":"c-2","user_id":"u-1","task_id":"t-2","task_date":"2024-01-03"}]`))
	})
	ctx := context.Background()

	got, err := api.GetTaskCompletionByTask(ctx, "u-1", "t-2")
	if err != nil || got == nil || got.ID != "c-2" {
		t.Fatalf("GetTaskCompletionByTask(t-2) = %+v, %v", got, err)
	}
	missing, err := api.GetTaskCompletionByTask(ctx, "u-1", "t-9")
	if err != nil || missing != nil {
		t.Fatalf("GetTaskCompletionByTask(t-9) = %+v, %v; want nil, nil", missing, err)
	}
}
