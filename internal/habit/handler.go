// Package habit serves ownership-checked habit CRUD.
package habit

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/habit-tracker/backend/internal/auth"
	"github.com/ayush/habit-tracker/backend/internal/logger"
	"github.com/ayush/habit-tracker/backend/internal/models"
	"github.com/ayush/habit-tracker/backend/internal/response"
)

// Store defines the interface for habit persistence.
type Store interface {
	CreateHabit(ctx context.Context, habit *models.Habit) (*models.Habit, error)
	ListHabitsByUser(ctx context.Context, userID string) ([]models.Habit, error)
	GetHabit(ctx context.Context, id string) (*models.Habit, error)
	UpdateHabit(ctx context.Context, id string, update models.HabitUpdate) (*models.Habit, error)
	DeleteHabit(ctx context.Context, id string) error
	ListSchedulesByUser(ctx context.Context, userID string) ([]models.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// TranscriptRemover drops the archived transcript of a schedule.
type TranscriptRemover interface {
	DeleteTranscript(ctx context.Context, userID, scheduleID string) error
}

// Handler holds habit HTTP handlers.
type Handler struct {
	store       Store
	transcripts TranscriptRemover
}

// NewHandler builds the habit handlers. transcripts may be nil.
func NewHandler(store Store, transcripts TranscriptRemover) *Handler {
	return &Handler{store: store, transcripts: transcripts}
}

func notFound(w http.ResponseWriter) {
	response.Fail(w, http.StatusNotFound, response.CodeHabitNotFound, "Habit not found")
}

// owned loads the habit and hides it from everyone but its owner.
func (h *Handler) owned(ctx context.Context, userID, id string) (*models.Habit, error) {
	habit, err := h.store.GetHabit(ctx, id)
	if err != nil || habit == nil || habit.UserID != userID {
		return nil, err
	}
	return habit, nil
}

// Create stores a new habit for the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	var req models.CreateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ValidationFailed(w, []response.FieldError{{Field: "body", Message: "Request body must be a JSON object"}})
		return
	}

	habit, err := h.store.CreateHabit(r.Context(), &models.Habit{
		UserID:      id.UserID,
		HabitName:   strings.TrimSpace(req.HabitName),
		UserHistory: req.UserHistory,
	})
	if err != nil {
		logger.Error("create habit", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeCreateHabit, "Failed to create habit")
		return
	}
	response.OK(w, http.StatusCreated, "Habit created successfully", habit)
}

// List returns the caller's habits.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	habits, err := h.store.ListHabitsByUser(r.Context(), id.UserID)
	if err != nil {
		logger.Error("list habits", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeGetHabits, "Failed to retrieve habits")
		return
	}
	response.OK(w, http.StatusOK, "Habits retrieved successfully", habits)
}

// Get returns one habit owned by the caller.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	habit, err := h.owned(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		logger.Error("get habit", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeGetHabit, "Failed to retrieve habit")
		return
	}
	if habit == nil {
		notFound(w)
		return
	}
	response.OK(w, http.StatusOK, "Habit retrieved successfully", habit)
}

// Update applies a partial update to a habit owned by the caller.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	var update models.HabitUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		response.ValidationFailed(w, []response.FieldError{{Field: "body", Message: "Request body must be a JSON object"}})
		return
	}
	if update.HabitName != nil {
		trimmed := strings.TrimSpace(*update.HabitName)
		update.HabitName = &trimmed
	}

	habitID := chi.URLParam(r, "id")
	habit, err := h.owned(r.Context(), id.UserID, habitID)
	if err != nil {
		logger.Error("update habit: lookup", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeUpdateHabit, "Failed to update habit")
		return
	}
	if habit == nil {
		notFound(w)
		return
	}

	updated, err := h.store.UpdateHabit(r.Context(), habitID, update)
	if err != nil {
		logger.Error("update habit", "user_id", id.UserID, "habit_id", habitID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeUpdateHabit, "Failed to update habit")
		return
	}
	if updated == nil {
		notFound(w)
		return
	}
	response.OK(w, http.StatusOK, "Habit updated successfully", updated)
}

// deleteSchedules removes every schedule built from habitID so no schedule
// outlives its habit.
func (h *Handler) deleteSchedules(ctx context.Context, userID, habitID string) error {
	schedules, err := h.store.ListSchedulesByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, schedule := range schedules {
		if schedule.HabitID != habitID || schedule.UserID != userID {
			continue
		}
		if err := h.store.DeleteSchedule(ctx, schedule.ID); err != nil {
			return err
		}
		if h.transcripts != nil {
			if err := h.transcripts.DeleteTranscript(ctx, userID, schedule.ID); err != nil {
				logger.Warn("delete transcript", "schedule_id", schedule.ID, "error", err)
			}
		}
	}
	return nil
}

// Delete removes a habit owned by the caller along with its schedules.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	habitID := chi.URLParam(r, "id")
	habit, err := h.owned(r.Context(), id.UserID, habitID)
	if err != nil {
		logger.Error("delete habit: lookup", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeDeleteHabit, "Failed to delete habit")
		return
	}
	if habit == nil {
		notFound(w)
		return
	}

	if err := h.deleteSchedules(r.Context(), id.UserID, habitID); err != nil {
		logger.Error("delete habit: schedules", "user_id", id.UserID, "habit_id", habitID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeDeleteHabit, "Failed to delete habit")
		return
	}
	if err := h.store.DeleteHabit(r.Context(), habitID); err != nil {
		logger.Error("delete habit", "user_id", id.UserID, "habit_id", habitID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeDeleteHabit, "Failed to delete habit")
		return
	}
	response.OK(w, http.StatusOK, "Habit deleted successfully", nil)
}
