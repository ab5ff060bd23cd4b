// Package schedule orchestrates schedule generation: it loads the habit,
// delegates the task distribution to the generator and persists the result.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/habit-tracker/backend/internal/auth"
	"github.com/ayush/habit-tracker/backend/internal/generation"
	"github.com/ayush/habit-tracker/backend/internal/logger"
	"github.com/ayush/habit-tracker/backend/internal/models"
	"github.com/ayush/habit-tracker/backend/internal/progress"
	"github.com/ayush/habit-tracker/backend/internal/response"
)

// Store defines the persistence the schedule handlers need.
type Store interface {
	GetHabit(ctx context.Context, id string) (*models.Habit, error)
	CreateSchedule(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error)
	ListSchedulesByUser(ctx context.Context, userID string) ([]models.Schedule, error)
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	UpdateSchedule(ctx context.Context, id string, update models.ScheduleUpdate) (*models.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// Generator produces task lists.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Result, error)
	Reschedule(ctx context.Context, req generation.Request) (*generation.Result, error)
}

// Transcripts archives the prompt and raw answer behind a schedule.
type Transcripts interface {
	SaveTranscript(ctx context.Context, userID string, t *models.Transcript) error
	LoadTranscript(ctx context.Context, userID, scheduleID string) (*models.Transcript, error)
	DeleteTranscript(ctx context.Context, userID, scheduleID string) error
}

// Handler holds schedule HTTP handlers.
type Handler struct {
	store       Store
	generator   Generator
	transcripts Transcripts
	now         func() time.Time
}

// NewHandler builds the schedule handlers. transcripts may be nil, which
// disables archiving.
func NewHandler(store Store, generator Generator, transcripts Transcripts) *Handler {
	return &Handler{store: store, generator: generator, transcripts: transcripts, now: time.Now}
}

func scheduleNotFound(w http.ResponseWriter) {
	response.Fail(w, http.StatusNotFound, response.CodeScheduleNotFound, "Schedule not found")
}

func habitNotFound(w http.ResponseWriter) {
	response.Fail(w, http.StatusNotFound, response.CodeHabitNotFound, "Habit not found")
}

func badBody(w http.ResponseWriter) {
	response.ValidationFailed(w, []response.FieldError{{Field: "body", Message: "Request body must be a JSON object"}})
}

// decode reads a JSON body; an empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *Handler) ownedHabit(ctx context.Context, userID, id string) (*models.Habit, error) {
	habit, err := h.store.GetHabit(ctx, id)
	if err != nil || habit == nil || habit.UserID != userID {
		return nil, err
	}
	return habit, nil
}

func (h *Handler) ownedSchedule(ctx context.Context, userID, id string) (*models.Schedule, error) {
	schedule, err := h.store.GetSchedule(ctx, id)
	if err != nil || schedule == nil || schedule.UserID != userID {
		return nil, err
	}
	return schedule, nil
}

// generationFailed answers a failed generator call.
func generationFailed(w http.ResponseWriter, err error, code response.ErrorCode, message string) {
	if errors.Is(err, generation.ErrParse) {
		response.Fail(w, http.StatusInternalServerError, response.CodeGenerationParse, "Failed to parse AI-generated schedule")
		return
	}
	response.Fail(w, http.StatusInternalServerError, code, message)
}

// archive stores the transcript of a generator call. Failures are logged
// and otherwise ignored.
func (h *Handler) archive(ctx context.Context, userID, kind string, schedule *models.Schedule, result *generation.Result) {
	if h.transcripts == nil {
		return
	}
	t := &models.Transcript{
		Kind:       kind,
		ScheduleID: schedule.ID,
		HabitID:    schedule.HabitID,
		Model:      result.Model,
		Prompt:     result.Prompt,
		Response:   result.RawResponse,
		CreatedAt:  h.now().UTC(),
	}
	if err := h.transcripts.SaveTranscript(ctx, userID, t); err != nil {
		logger.Warn("archive transcript", "schedule_id", schedule.ID, "error", err)
	}
}

// Create generates and stores a schedule for one of the caller's habits.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	var req models.CreateScheduleRequest
	if err := decode(r, &req); err != nil {
		badBody(w)
		return
	}

	habit, err := h.ownedHabit(r.Context(), id.UserID, req.HabitID)
	if err != nil {
		logger.Error("create schedule: lookup habit", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeCreateSchedule, "Failed to create schedule")
		return
	}
	if habit == nil {
		habitNotFound(w)
		return
	}

	history := req.UserHistory
	if history == "" {
		history = habit.UserHistory
	}
	result, err := h.generator.Generate(r.Context(), generation.Request{
		HabitName:   habit.HabitName,
		UserHistory: history,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		logger.Error("create schedule: generate", "user_id", id.UserID, "habit_id", habit.ID, "error", err)
		generationFailed(w, err, response.CodeCreateSchedule, "Failed to create schedule")
		return
	}

	created, err := h.store.CreateSchedule(r.Context(), &models.Schedule{
		UserID:       id.UserID,
		HabitID:      habit.ID,
		ScheduleData: []models.DailyTask{},
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		logger.Error("create schedule", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeCreateSchedule, "Failed to create schedule")
		return
	}

	generated := true
	schedule, err := h.store.UpdateSchedule(r.Context(), created.ID, models.ScheduleUpdate{
		ScheduleData:  &result.Tasks,
		GeneratedByAI: &generated,
	})
	if err == nil && schedule == nil {
		err = errors.New("schedule vanished after create")
	}
	if err != nil {
		logger.Error("create schedule: store tasks", "schedule_id", created.ID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeCreateSchedule, "Failed to create schedule")
		return
	}

	h.archive(r.Context(), id.UserID, models.TranscriptGenerate, schedule, result)
	response.OK(w, http.StatusCreated, "Schedule created successfully", models.GeneratedSchedule{
		Schedule:          *schedule,
		AIReasoning:       result.Reasoning,
		AIRecommendations: result.Recommendations,
	})
}

// List returns the caller's schedules.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	schedules, err := h.store.ListSchedulesByUser(r.Context(), id.UserID)
	if err != nil {
		logger.Error("list schedules", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeGetSchedules, "Failed to retrieve schedules")
		return
	}
	response.OK(w, http.StatusOK, "Schedules retrieved successfully", schedules)
}

// Get returns one schedule owned by the caller.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	schedule, err := h.ownedSchedule(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		logger.Error("get schedule", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeGetSchedule, "Failed to retrieve schedule")
		return
	}
	if schedule == nil {
		scheduleNotFound(w)
		return
	}
	response.OK(w, http.StatusOK, "Schedule retrieved successfully", schedule)
}

// tasksWithin reports whether every task is dated inside [start, end].
func tasksWithin(tasks []models.DailyTask, start, end string) bool {
	for _, task := range tasks {
		if task.Date < start || task.Date > end {
			return false
		}
	}
	return true
}

// Update applies a partial update. The resulting range must stay ordered.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	var update models.ScheduleUpdate
	if err := decode(r, &update); err != nil {
		badBody(w)
		return
	}

	scheduleID := chi.URLParam(r, "id")
	schedule, err := h.ownedSchedule(r.Context(), id.UserID, scheduleID)
	if err != nil {
		logger.Error("update schedule: lookup", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeUpdateSchedule, "Failed to update schedule")
		return
	}
	if schedule == nil {
		scheduleNotFound(w)
		return
	}

	start, end := schedule.StartDate, schedule.EndDate
	if update.StartDate != nil {
		start = *update.StartDate
	}
	if update.EndDate != nil {
		end = *update.EndDate
	}
	if end < start {
		response.ValidationFailed(w, []response.FieldError{{Field: "end_date", Message: "End date must not be before start date"}})
		return
	}
	tasks := schedule.ScheduleData
	if update.ScheduleData != nil {
		tasks = *update.ScheduleData
	}
	if !tasksWithin(tasks, start, end) {
		response.ValidationFailed(w, []response.FieldError{{Field: "schedule_data", Message: "Task dates must fall within the schedule date range"}})
		return
	}

	updated, err := h.store.UpdateSchedule(r.Context(), scheduleID, update)
	if err != nil {
		logger.Error("update schedule", "schedule_id", scheduleID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeUpdateSchedule, "Failed to update schedule")
		return
	}
	if updated == nil {
		scheduleNotFound(w)
		return
	}
	response.OK(w, http.StatusOK, "Schedule updated successfully", updated)
}

// Delete removes a schedule owned by the caller together with its transcript.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	scheduleID := chi.URLParam(r, "id")
	schedule, err := h.ownedSchedule(r.Context(), id.UserID, scheduleID)
	if err != nil {
		logger.Error("delete schedule: lookup", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeDeleteSchedule, "Failed to delete schedule")
		return
	}
	if schedule == nil {
		scheduleNotFound(w)
		return
	}

	if err := h.store.DeleteSchedule(r.Context(), scheduleID); err != nil {
		logger.Error("delete schedule", "schedule_id", scheduleID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeDeleteSchedule, "Failed to delete schedule")
		return
	}
	if h.transcripts != nil {
		if err := h.transcripts.DeleteTranscript(r.Context(), id.UserID, scheduleID); err != nil {
			logger.Warn("delete transcript", "schedule_id", scheduleID, "error", err)
		}
	}
	response.OK(w, http.StatusOK, "Schedule deleted successfully", nil)
}

// Reschedule regenerates the task list of a schedule from its progress.
// The date range is left untouched.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	var req models.RescheduleRequest
	if err := decode(r, &req); err != nil {
		badBody(w)
		return
	}

	scheduleID := chi.URLParam(r, "id")
	schedule, err := h.ownedSchedule(r.Context(), id.UserID, scheduleID)
	if err != nil {
		logger.Error("reschedule: lookup schedule", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeReschedule, "Failed to reschedule tasks")
		return
	}
	if schedule == nil {
		scheduleNotFound(w)
		return
	}

	habit, err := h.ownedHabit(r.Context(), id.UserID, schedule.HabitID)
	if err != nil {
		logger.Error("reschedule: lookup habit", "habit_id", schedule.HabitID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeReschedule, "Failed to reschedule tasks")
		return
	}
	if habit == nil {
		habitNotFound(w)
		return
	}

	now := h.now()
	report := progress.Compute(schedule, now)
	current := &generation.Progress{
		CompletedTasks: report.CompletedTasks,
		TotalTasks:     report.TotalTasks,
		MissedDates:    req.MissedDates,
	}
	if req.CurrentProgress != nil {
		current.CompletedTasks = req.CurrentProgress.CompletedTasks
		current.TotalTasks = req.CurrentProgress.TotalTasks
	}
	if req.MissedDates == nil {
		current.MissedDates = progress.MissedDates(schedule, now)
	}

	result, err := h.generator.Reschedule(r.Context(), generation.Request{
		HabitName:   habit.HabitName,
		UserHistory: habit.UserHistory,
		StartDate:   schedule.StartDate,
		EndDate:     schedule.EndDate,
		Progress:    current,
	})
	if err != nil {
		logger.Error("reschedule: generate", "schedule_id", scheduleID, "error", err)
		generationFailed(w, err, response.CodeReschedule, "Failed to reschedule tasks")
		return
	}

	generated := true
	updated, err := h.store.UpdateSchedule(r.Context(), scheduleID, models.ScheduleUpdate{
		ScheduleData:  &result.Tasks,
		GeneratedByAI: &generated,
	})
	if err != nil {
		logger.Error("reschedule: store tasks", "schedule_id", scheduleID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeReschedule, "Failed to reschedule tasks")
		return
	}
	if updated == nil {
		scheduleNotFound(w)
		return
	}

	h.archive(r.Context(), id.UserID, models.TranscriptReschedule, updated, result)
	response.OK(w, http.StatusOK, "Schedule rescheduled successfully", models.GeneratedSchedule{
		Schedule:          *updated,
		AIReasoning:       result.Reasoning,
		AIRecommendations: result.Recommendations,
	})
}

// Transcript returns the archived generation transcript of a schedule.
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	scheduleID := chi.URLParam(r, "id")
	schedule, err := h.ownedSchedule(r.Context(), id.UserID, scheduleID)
	if err != nil {
		logger.Error("get transcript: lookup schedule", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeGetTranscript, "Failed to retrieve transcript")
		return
	}
	if schedule == nil {
		scheduleNotFound(w)
		return
	}

	var transcript *models.Transcript
	if h.transcripts != nil {
		transcript, err = h.transcripts.LoadTranscript(r.Context(), id.UserID, scheduleID)
		if err != nil {
			logger.Error("get transcript", "schedule_id", scheduleID, "error", err)
			response.Fail(w, http.StatusInternalServerError, response.CodeGetTranscript, "Failed to retrieve transcript")
			return
		}
	}
	if transcript == nil {
		response.Fail(w, http.StatusNotFound, response.CodeTranscriptNotFound, "Transcript not found")
		return
	}
	response.OK(w, http.StatusOK, "Transcript retrieved successfully", transcript)
}
