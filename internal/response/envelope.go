// Package response defines the JSON envelope every endpoint answers with.
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorCode is the machine-readable failure code carried by a failed envelope.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodePasswordValidation ErrorCode = "PASSWORD_VALIDATION_ERROR"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeMissingToken       ErrorCode = "MISSING_TOKEN"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeUserExists         ErrorCode = "USER_EXISTS"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeAuthError          ErrorCode = "AUTH_ERROR"

	CodeHabitNotFound          ErrorCode = "HABIT_NOT_FOUND"
	CodeScheduleNotFound       ErrorCode = "SCHEDULE_NOT_FOUND"
	CodeTaskNotFound           ErrorCode = "TASK_NOT_FOUND"
	CodeTaskCompletionNotFound ErrorCode = "TASK_COMPLETION_NOT_FOUND"
	CodeTranscriptNotFound     ErrorCode = "TRANSCRIPT_NOT_FOUND"
	CodeUserNotFound           ErrorCode = "USER_NOT_FOUND"
	CodeNotFound               ErrorCode = "NOT_FOUND"

	CodeSignup        ErrorCode = "SIGNUP_ERROR"
	CodeLogin         ErrorCode = "LOGIN_ERROR"
	CodeLogout        ErrorCode = "LOGOUT_ERROR"
	CodeProfile       ErrorCode = "PROFILE_ERROR"
	CodeUpdateProfile ErrorCode = "UPDATE_PROFILE_ERROR"

	CodeCreateHabit ErrorCode = "CREATE_HABIT_ERROR"
	CodeGetHabits   ErrorCode = "GET_HABITS_ERROR"
	CodeGetHabit    ErrorCode = "GET_HABIT_ERROR"
	CodeUpdateHabit ErrorCode = "UPDATE_HABIT_ERROR"
	CodeDeleteHabit ErrorCode = "DELETE_HABIT_ERROR"

	CodeCreateSchedule  ErrorCode = "CREATE_SCHEDULE_ERROR"
	CodeGetSchedules    ErrorCode = "GET_SCHEDULES_ERROR"
	CodeGetSchedule     ErrorCode = "GET_SCHEDULE_ERROR"
	CodeUpdateSchedule  ErrorCode = "UPDATE_SCHEDULE_ERROR"
	CodeDeleteSchedule  ErrorCode = "DELETE_SCHEDULE_ERROR"
	CodeReschedule      ErrorCode = "RESCHEDULE_ERROR"
	CodeGetTranscript   ErrorCode = "GET_TRANSCRIPT_ERROR"
	CodeGenerationParse ErrorCode = "GENERATION_PARSE_ERROR"

	CodeUpdateTask         ErrorCode = "UPDATE_TASK_ERROR"
	CodeGetTaskCompletions ErrorCode = "GET_TASK_COMPLETIONS_ERROR"
	CodeGetTaskCompletion  ErrorCode = "GET_TASK_COMPLETION_ERROR"
	CodeGetTaskProgress    ErrorCode = "GET_TASK_PROGRESS_ERROR"

	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Envelope is the single response shape of the API. Error is empty on
// success; Data is omitted when nil.
type Envelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
	Error   ErrorCode `json:"error,omitempty"`
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope without details.
func Fail(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, Envelope{Success: false, Message: message, Error: code})
}

// FailWithData writes a failure envelope with structured details, such as
// a list of FieldError.
func FailWithData(w http.ResponseWriter, status int, code ErrorCode, message string, data any) {
	JSON(w, status, Envelope{Success: false, Message: message, Error: code, Data: data})
}

// Unauthenticated is the answer of handlers reached without an identity.
func Unauthenticated(w http.ResponseWriter) {
	Fail(w, http.StatusUnauthorized, CodeUnauthorized, "User not authenticated")
}

// ValidationFailed answers with VALIDATION_ERROR and the ordered field errors.
func ValidationFailed(w http.ResponseWriter, errs []FieldError) {
	FailWithData(w, http.StatusBadRequest, CodeValidation, "Validation failed", errs)
}
