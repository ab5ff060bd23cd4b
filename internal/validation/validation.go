// Package validation checks request bodies against declarative per-field
// rules. It never talks to the store or the generator.
package validation

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ayush/habit-tracker/backend/internal/models"
	"github.com/ayush/habit-tracker/backend/internal/response"
)

// Check reports whether value passes. body is the whole decoded request,
// for cross-field rules.
type Check func(value any, body map[string]any) bool

// Rule validates one field. All checks must pass; a failure reports Message.
// An Optional rule is skipped when the field is absent or null.
type Rule struct {
	Field    string
	Optional bool
	Checks   []Check
	Message  string
}

// Field starts a required rule for name.
func Field(name string, message string, checks ...Check) Rule {
	return Rule{Field: name, Checks: checks, Message: message}
}

// OptionalField starts a rule that only runs when name is present.
func OptionalField(name string, message string, checks ...Check) Rule {
	return Rule{Field: name, Optional: true, Checks: checks, Message: message}
}

// Validate runs rules in order and returns one FieldError per failing rule.
func Validate(body map[string]any, rules []Rule) []response.FieldError {
	var errs []response.FieldError
	for _, rule := range rules {
		value, present := body[rule.Field]
		if !present || value == nil {
			if rule.Optional {
				continue
			}
			errs = append(errs, response.FieldError{Field: rule.Field, Message: rule.Message})
			continue
		}
		for _, check := range rule.Checks {
			if !check(value, body) {
				errs = append(errs, response.FieldError{Field: rule.Field, Message: rule.Message})
				break
			}
		}
	}
	return errs
}

// IsString passes for JSON strings.
func IsString(value any, _ map[string]any) bool {
	_, ok := value.(string)
	return ok
}

// NotEmpty passes for strings with non-blank content.
func NotEmpty(value any, _ map[string]any) bool {
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) != ""
}

// Length passes for strings whose trimmed rune count is within [min, max].
// max <= 0 means unbounded.
func Length(min, max int) Check {
	return func(value any, _ map[string]any) bool {
		s, ok := value.(string)
		if !ok {
			return false
		}
		n := utf8.RuneCountInString(strings.TrimSpace(s))
		return n >= min && (max <= 0 || n <= max)
	}
}

// Matches passes for strings matching re.
func Matches(re *regexp.Regexp) Check {
	return func(value any, _ map[string]any) bool {
		s, ok := value.(string)
		return ok && re.MatchString(s)
	}
}

// IsEmail passes for a bare address such as user@example.com.
func IsEmail(value any, _ map[string]any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

// IsUUID passes for canonical UUID strings.
func IsUUID(value any, _ map[string]any) bool {
	s, ok := value.(string)
	if !ok || len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// IsDate passes for YYYY-MM-DD calendar dates.
func IsDate(value any, _ map[string]any) bool {
	s, ok := value.(string)
	return ok && ValidDate(s)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}

// IsBool passes for JSON booleans.
func IsBool(value any, _ map[string]any) bool {
	_, ok := value.(bool)
	return ok
}

// IsObject passes for JSON objects.
func IsObject(value any, _ map[string]any) bool {
	_, ok := value.(map[string]any)
	return ok
}

// EachDate passes for arrays whose elements are all YYYY-MM-DD dates.
func EachDate(value any, body map[string]any) bool {
	items, ok := value.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if !IsDate(item, body) {
			return false
		}
	}
	return true
}

// EachTask passes for arrays of well-formed daily tasks: a UUID id, a
// YYYY-MM-DD date, a description, an integer priority in 1..5 and, when
// present, a boolean is_completed.
func EachTask(value any, body map[string]any) bool {
	items, ok := value.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		task, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if !IsUUID(task["id"], body) || !IsDate(task["date"], body) || !IsString(task["task_description"], body) {
			return false
		}
		priority, ok := task["priority"].(float64)
		if !ok || priority != float64(int(priority)) || priority < 1 || priority > 5 {
			return false
		}
		if done, present := task["is_completed"]; present && !IsBool(done, body) {
			return false
		}
	}
	return true
}

// EqualsField passes when the value equals the value of another field.
func EqualsField(other string) Check {
	return func(value any, body map[string]any) bool {
		return value == body[other]
	}
}

// NotBeforeField passes when the date value is on or after the date in
// another field. An invalid other field is left to that field's own rule.
func NotBeforeField(other string) Check {
	return func(value any, body map[string]any) bool {
		s, ok := value.(string)
		if !ok {
			return false
		}
		o, ok := body[other].(string)
		if !ok || !ValidDate(o) || !ValidDate(s) {
			return true
		}
		return s >= o
	}
}
