package models

import "time"

// User is an account. PasswordHash is only populated by lookups that need
// it for credential checks and is never serialized.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	IsSetupComplete bool      `json:"is_setup_complete"`
}

// UserUpdate carries a partial profile update; nil fields are left alone.
type UserUpdate struct {
	Username        *string `json:"username,omitempty"`
	IsSetupComplete *bool   `json:"is_setup_complete,omitempty"`
}

// SignupRequest is the JSON body for POST /auth/signup.
type SignupRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
