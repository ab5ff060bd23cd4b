// Package task serves task completion records and schedule progress.
package task

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/habit-tracker/backend/internal/auth"
	"github.com/ayush/habit-tracker/backend/internal/logger"
	"github.com/ayush/habit-tracker/backend/internal/models"
	"github.com/ayush/habit-tracker/backend/internal/progress"
	"github.com/ayush/habit-tracker/backend/internal/response"
)

// Store defines the persistence the task handlers need.
type Store interface {
	ListSchedulesByUser(ctx context.Context, userID string) ([]models.Schedule, error)
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	UpdateSchedule(ctx context.Context, id string, update models.ScheduleUpdate) (*models.Schedule, error)
	UpsertTaskCompletion(ctx context.Context, completion *models.TaskCompletion) (*models.TaskCompletion, error)
	ListTaskCompletions(ctx context.Context, userID string, dates models.DateRange) ([]models.TaskCompletion, error)
	GetTaskCompletion(ctx context.Context, id string) (*models.TaskCompletion, error)
	GetTaskCompletionByTask(ctx context.Context, userID, taskID string) (*models.TaskCompletion, error)
}

// Handler holds task HTTP handlers.
type Handler struct {
	store Store
	now   func() time.Time
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store, now: time.Now}
}

// findTask locates taskID among the caller's schedules.
func (h *Handler) findTask(ctx context.Context, userID, taskID string) (*models.Schedule, int, error) {
	schedules, err := h.store.ListSchedulesByUser(ctx, userID)
	if err != nil {
		return nil, -1, err
	}
	for i := range schedules {
		if schedules[i].UserID != userID {
			continue
		}
		if idx := schedules[i].FindTask(taskID); idx >= 0 {
			return &schedules[i], idx, nil
		}
	}
	return nil, -1, nil
}

// UpdateCompletion records the completion state of one of the caller's
// tasks and mirrors it into the owning schedule.
func (h *Handler) UpdateCompletion(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	var req models.UpdateTaskCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ValidationFailed(w, []response.FieldError{{Field: "body", Message: "Request body must be a JSON object"}})
		return
	}

	schedule, idx, err := h.findTask(r.Context(), id.UserID, req.TaskID)
	if err != nil {
		logger.Error("update task: lookup", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeUpdateTask, "Failed to update task completion")
		return
	}
	if schedule == nil {
		response.Fail(w, http.StatusNotFound, response.CodeTaskNotFound, "Task not found")
		return
	}

	var completedAt *time.Time
	if req.IsCompleted {
		now := h.now().UTC()
		completedAt = &now
	}

	completion, err := h.store.UpsertTaskCompletion(r.Context(), &models.TaskCompletion{
		UserID:      id.UserID,
		TaskID:      req.TaskID,
		TaskDate:    schedule.ScheduleData[idx].Date,
		IsCompleted: req.IsCompleted,
		CompletedAt: completedAt,
		Notes:       req.Notes,
	})
	if err != nil {
		logger.Error("update task", "user_id", id.UserID, "task_id", req.TaskID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeUpdateTask, "Failed to update task completion")
		return
	}

	tasks := append([]models.DailyTask(nil), schedule.ScheduleData...)
	tasks[idx].IsCompleted = req.IsCompleted
	tasks[idx].CompletedAt = completedAt
	if _, err := h.store.UpdateSchedule(r.Context(), schedule.ID, models.ScheduleUpdate{ScheduleData: &tasks}); err != nil {
		logger.Error("update task: mirror into schedule", "schedule_id", schedule.ID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeUpdateTask, "Failed to update task completion")
		return
	}

	response.OK(w, http.StatusOK, "Task completion updated successfully", completion)
}

// Completions lists the caller's completion records, optionally limited to
// a start_date/end_date window.
func (h *Handler) Completions(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	dates := models.DateRange{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	completions, err := h.store.ListTaskCompletions(r.Context(), id.UserID, dates)
	if err != nil {
		logger.Error("list task completions", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeGetTaskCompletions, "Failed to retrieve task completions")
		return
	}
	response.OK(w, http.StatusOK, "Task completions retrieved successfully", completions)
}

// lookupCompletion resolves key as a completion id first, then as the
// task id of one of the caller's completions.
func (h *Handler) lookupCompletion(ctx context.Context, userID, key string) (*models.TaskCompletion, error) {
	completion, err := h.store.GetTaskCompletion(ctx, key)
	if err != nil {
		return nil, err
	}
	if completion != nil && completion.UserID == userID {
		return completion, nil
	}
	return h.store.GetTaskCompletionByTask(ctx, userID, key)
}

// CompletionByID returns one of the caller's completion records, addressed
// by its own id or by the task id it records.
func (h *Handler) CompletionByID(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	completion, err := h.lookupCompletion(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		logger.Error("get task completion", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeGetTaskCompletion, "Failed to retrieve task completion")
		return
	}
	if completion == nil || completion.UserID != id.UserID {
		response.Fail(w, http.StatusNotFound, response.CodeTaskCompletionNotFound, "Task completion not found")
		return
	}
	response.OK(w, http.StatusOK, "Task completion retrieved successfully", completion)
}

// Progress summarizes one of the caller's schedules.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	schedule, err := h.store.GetSchedule(r.Context(), chi.URLParam(r, "scheduleId"))
	if err != nil {
		logger.Error("get task progress", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeGetTaskProgress, "Failed to retrieve task progress")
		return
	}
	if schedule == nil || schedule.UserID != id.UserID {
		response.Fail(w, http.StatusNotFound, response.CodeScheduleNotFound, "Schedule not found")
		return
	}
	response.OK(w, http.StatusOK, "Task progress retrieved successfully", progress.Compute(schedule, h.now()))
}
