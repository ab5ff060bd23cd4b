package validation

import "regexp"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const (
	msgEmail       = "Please provide a valid email address"
	msgUsername    = "Username must be 3-30 characters long and contain only letters, numbers, and underscores"
	msgHabitName   = "Habit name must be 1-100 characters long"
	msgUserHistory = "User history must be less than 1000 characters"
)

// Signup leaves password strength to the password policy so that weak
// passwords are reported as PASSWORD_VALIDATION_ERROR.
var Signup = []Rule{
	Field("email", msgEmail, IsEmail),
	Field("username", msgUsername, Length(3, 30), Matches(usernamePattern)),
	Field("password", "Password is required", NotEmpty),
	Field("confirm_password", "Password confirmation does not match password", EqualsField("password")),
}

var Login = []Rule{
	Field("email", msgEmail, IsEmail),
	Field("password", "Password is required", NotEmpty),
}

var UpdateProfile = []Rule{
	OptionalField("username", msgUsername, Length(3, 30), Matches(usernamePattern)),
	OptionalField("is_setup_complete", "is_setup_complete must be a boolean value", IsBool),
}

var CreateHabit = []Rule{
	Field("habit_name", msgHabitName, Length(1, 100)),
	OptionalField("user_history", msgUserHistory, Length(0, 1000)),
}

var UpdateHabit = []Rule{
	OptionalField("habit_name", msgHabitName, Length(1, 100)),
	OptionalField("user_history", msgUserHistory, Length(0, 1000)),
}

var CreateSchedule = []Rule{
	Field("habit_id", "Habit ID must be a valid UUID", IsUUID),
	Field("start_date", "Start date must be a valid date in YYYY-MM-DD format", IsDate),
	Field("end_date", "End date must be a valid date in YYYY-MM-DD format", IsDate),
	Field("end_date", "End date must not be before start date", NotBeforeField("start_date")),
	OptionalField("user_history", msgUserHistory, Length(0, 1000)),
}

var UpdateSchedule = []Rule{
	OptionalField("start_date", "Start date must be a valid date in YYYY-MM-DD format", IsDate),
	OptionalField("end_date", "End date must be a valid date in YYYY-MM-DD format", IsDate),
	OptionalField("end_date", "End date must not be before start date", NotBeforeField("start_date")),
	OptionalField("generated_by_ai", "generated_by_ai must be a boolean value", IsBool),
	OptionalField("schedule_data", "schedule_data must be an array of tasks with a UUID id, a YYYY-MM-DD date, a description and a priority from 1 to 5", EachTask),
}

var Reschedule = []Rule{
	OptionalField("missed_dates", "missed_dates must be an array of YYYY-MM-DD dates", EachDate),
	OptionalField("current_progress", "current_progress must be an object", IsObject),
}

var UpdateTaskCompletion = []Rule{
	Field("task_id", "Task ID must be a valid UUID", IsUUID),
	Field("is_completed", "is_completed must be a boolean value", IsBool),
	OptionalField("notes", "Notes must be less than 500 characters", Length(0, 500)),
}

var CompletionsQuery = []Rule{
	OptionalField("start_date", "Start date must be a valid date in YYYY-MM-DD format", IsDate),
	OptionalField("end_date", "End date must be a valid date in YYYY-MM-DD format", IsDate),
}
