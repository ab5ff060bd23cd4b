// Package server assembles the HTTP routing tree.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/habit-tracker/backend/internal/auth"
	"github.com/ayush/habit-tracker/backend/internal/habit"
	"github.com/ayush/habit-tracker/backend/internal/middleware"
	"github.com/ayush/habit-tracker/backend/internal/response"
	"github.com/ayush/habit-tracker/backend/internal/schedule"
	"github.com/ayush/habit-tracker/backend/internal/task"
	"github.com/ayush/habit-tracker/backend/internal/validation"
)

// Version is reported by the health and root endpoints.
const Version = "1.0.0"

// Deps are the collaborators the router mounts.
type Deps struct {
	Auth      *auth.Handler
	Habits    *habit.Handler
	Schedules *schedule.Handler
	Tasks     *task.Handler

	Tokens   middleware.TokenVerifier
	Denylist auth.Denylist // may be nil

	APIPrefix      string
	AllowedOrigins []string
}

// NewRouter builds the full handler. Resource routes live under
// d.APIPrefix; /health and / stay at the root. Body validation runs before
// authorization on every create and update route.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusNotFound, response.CodeNotFound, "Route "+r.Method+" "+r.URL.Path+" not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, response.CodeNotFound, "Method "+r.Method+" not allowed on "+r.URL.Path)
	})

	requireAuth := middleware.RequireAuth(d.Tokens, d.Denylist)
	validate := middleware.Validate

	r.Get("/health", health)
	r.With(middleware.OptionalAuth(d.Tokens)).Get("/", root(d.APIPrefix))

	r.Route(d.APIPrefix, func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(validate(validation.Signup)).Post("/signup", d.Auth.Signup)
			r.With(validate(validation.Login)).Post("/login", d.Auth.Login)
			r.With(requireAuth).Post("/logout", d.Auth.Logout)
			r.With(requireAuth).Get("/profile", d.Auth.Profile)
			r.With(validate(validation.UpdateProfile), requireAuth).Patch("/profile", d.Auth.UpdateProfile)
		})

		r.Route("/habits", func(r chi.Router) {
			r.With(validate(validation.CreateHabit), requireAuth).Post("/", d.Habits.Create)
			r.With(requireAuth).Get("/", d.Habits.List)
			r.With(requireAuth).Get("/{id}", d.Habits.Get)
			r.With(validate(validation.UpdateHabit), requireAuth).Patch("/{id}", d.Habits.Update)
			r.With(requireAuth).Delete("/{id}", d.Habits.Delete)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.With(validate(validation.CreateSchedule), requireAuth).Post("/", d.Schedules.Create)
			r.With(requireAuth).Get("/", d.Schedules.List)
			r.With(requireAuth).Get("/{id}", d.Schedules.Get)
			r.With(validate(validation.UpdateSchedule), requireAuth).Patch("/{id}", d.Schedules.Update)
			r.With(requireAuth).Delete("/{id}", d.Schedules.Delete)
			r.With(validate(validation.Reschedule), requireAuth).Post("/{id}/reschedule", d.Schedules.Reschedule)
			r.With(requireAuth).Get("/{id}/transcript", d.Schedules.Transcript)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.With(validate(validation.UpdateTaskCompletion), requireAuth).Patch("/completion", d.Tasks.UpdateCompletion)
			r.With(middleware.ValidateQuery(validation.CompletionsQuery), requireAuth).Get("/completions", d.Tasks.Completions)
			r.With(requireAuth).Get("/completion/{id}", d.Tasks.CompletionByID)
			r.With(requireAuth).Get("/progress/{scheduleId}", d.Tasks.Progress)
		})
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, http.StatusOK, "Habit Tracker API is running", map[string]string{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

func root(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"version": Version,
			"endpoints": map[string]string{
				"auth":      prefix + "/auth",
				"habits":    prefix + "/habits",
				"schedules": prefix + "/schedules",
				"tasks":     prefix + "/tasks",
				"health":    "/health",
			},
		}
		if id, ok := auth.IdentityFrom(r.Context()); ok {
			data["user"] = id.Username
		}
		response.OK(w, http.StatusOK, "Welcome to Habit Tracker API", data)
	}
}
