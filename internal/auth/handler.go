package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayush/habit-tracker/backend/internal/logger"
	"github.com/ayush/habit-tracker/backend/internal/models"
	"github.com/ayush/habit-tracker/backend/internal/response"
	"github.com/ayush/habit-tracker/backend/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    UserStore
	tokens   *TokenManager
	denylist Denylist
	policy   PasswordPolicy
}

// NewHandler builds the auth handlers. denylist may be nil, in which case
// logout only asks the client to forget its token.
func NewHandler(users UserStore, tokens *TokenManager, denylist Denylist) *Handler {
	return &Handler{users: users, tokens: tokens, denylist: denylist, policy: DefaultPasswordPolicy}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func badBody(w http.ResponseWriter) {
	response.ValidationFailed(w, []response.FieldError{{Field: "body", Message: "Request body must be a JSON object"}})
}

// Signup creates a new user and returns it with a token.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badBody(w)
		return
	}

	if failures := h.policy.Validate(req.Password); len(failures) > 0 {
		response.FailWithData(w, http.StatusBadRequest, response.CodePasswordValidation,
			"Password validation failed", failures)
		return
	}

	email := normalizeEmail(req.Email)
	existing, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		logger.Error("signup: lookup user", "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeSignup, "Failed to create user account")
		return
	}
	if existing != nil {
		response.Fail(w, http.StatusConflict, response.CodeUserExists, "User with this email already exists")
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		logger.Error("signup: hash password", "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeSignup, "Failed to create user account")
		return
	}

	user, err := h.users.CreateUser(r.Context(), &models.User{
		Email:        email,
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hashed,
	})
	if errors.Is(err, store.ErrConflict) {
		response.Fail(w, http.StatusConflict, response.CodeUserExists, "User with this email already exists")
		return
	}
	if err != nil {
		logger.Error("signup: create user", "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeSignup, "Failed to create user account")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		logger.Error("signup: issue token", "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeSignup, "Failed to create user account")
		return
	}

	user.PasswordHash = ""
	response.OK(w, http.StatusCreated, "User created successfully", models.AuthResponse{User: user, Token: token})
}

// Login authenticates a user and returns a token. Unknown emails and wrong
// passwords get the same answer.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badBody(w)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		logger.Error("login: lookup user", "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeLogin, "Failed to authenticate user")
		return
	}
	if user == nil {
		burnPasswordCheck(req.Password)
		response.Fail(w, http.StatusUnauthorized, response.CodeInvalidCredentials, "Invalid email or password")
		return
	}
	if !CheckPassword(user.PasswordHash, req.Password) {
		response.Fail(w, http.StatusUnauthorized, response.CodeInvalidCredentials, "Invalid email or password")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		logger.Error("login: issue token", "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeLogin, "Failed to authenticate user")
		return
	}

	user.PasswordHash = ""
	response.OK(w, http.StatusOK, "Login successful", models.AuthResponse{User: user, Token: token})
}

// Logout revokes the presented token when a denylist is configured.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	if h.denylist != nil && id.TokenID != "" {
		if err := h.denylist.Revoke(r.Context(), id.TokenID, time.Until(id.ExpiresAt)); err != nil {
			logger.Error("logout: revoke token", "error", err)
			response.Fail(w, http.StatusInternalServerError, response.CodeLogout, "Failed to log out")
			return
		}
	}

	response.OK(w, http.StatusOK, "Logged out successfully", nil)
}

// Profile returns the currently authenticated user.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		logger.Error("profile: get user", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeProfile, "Failed to retrieve user profile")
		return
	}
	if user == nil {
		response.Fail(w, http.StatusNotFound, response.CodeUserNotFound, "User not found")
		return
	}

	user.PasswordHash = ""
	response.OK(w, http.StatusOK, "Profile retrieved successfully", user)
}

// UpdateProfile applies the provided subset of {username, is_setup_complete}.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		response.Unauthenticated(w)
		return
	}

	var update models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		badBody(w)
		return
	}
	if update.Username != nil {
		trimmed := strings.TrimSpace(*update.Username)
		update.Username = &trimmed
	}

	user, err := h.users.UpdateUser(r.Context(), id.UserID, update)
	if err != nil {
		logger.Error("update profile", "user_id", id.UserID, "error", err)
		response.Fail(w, http.StatusInternalServerError, response.CodeUpdateProfile, "Failed to update user profile")
		return
	}
	if user == nil {
		response.Fail(w, http.StatusNotFound, response.CodeUserNotFound, "User not found")
		return
	}

	user.PasswordHash = ""
	response.OK(w, http.StatusOK, "Profile updated successfully", user)
}
