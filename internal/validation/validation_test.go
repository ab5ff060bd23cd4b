package validation

import (
	"encoding/json"
	"strings"
	"testing"
)

func body(t *testing.T, raw string) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func fields(t *testing.T, raw string, rules []Rule) []string {
	t.Helper()
	var names []string
	for _, e := range Validate(body(t, raw), rules) {
		names = append(names, e.Field)
	}
	return names
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSignupRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "valid",
			raw:  `{"email":"Ann@Example.com","username":"ann_1","password":"short","confirm_password":"short"}`,
			want: nil,
		},
		{
			name: "everything wrong keeps rule order",
			raw:  `{"email":"nope","username":"a!","password":"","confirm_password":"x"}`,
			want: []string{"email", "username", "password", "confirm_password"},
		},
		{
			name: "missing fields",
			raw:  `{}`,
			want: []string{"email", "username", "password", "confirm_password"},
		},
		{
			name: "username too long",
			raw:  `{"email":"a@b.io","username":"abcdefghijabcdefghijabcdefghijk","password":"p","confirm_password":"p"}`,
			want: []string{"username"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := fields(t, test.raw, Signup); !equal(got, test.want) {
				t.Fatalf("failing fields = %v, want %v", got, test.want)
			}
		})
	}
}

func TestCreateScheduleRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "valid",
			raw:  `{"habit_id":"2b0c9a3e-4c4e-4d8a-9a59-7d6f3b8f6a10","start_date":"2024-01-01","end_date":"2024-01-05"}`,
			want: nil,
		},
		{
			name: "bad id and dates",
			raw:  `{"habit_id":"abc","start_date":"2024-13-01","end_date":"tomorrow"}`,
			want: []string{"habit_id", "start_date", "end_date"},
		},
		{
			name: "end before start",
			raw:  `{"habit_id":"2b0c9a3e-4c4e-4d8a-9a59-7d6f3b8f6a10","start_date":"2024-01-05","end_date":"2024-01-01"}`,
			want: []string{"end_date"},
		},
		{
			name: "history too long",
			raw:  `{"habit_id":"2b0c9a3e-4c4e-4d8a-9a59-7d6f3b8f6a10","start_date":"2024-01-01","end_date":"2024-01-01","user_history":"` + strings.Repeat("x", 1001) + `"}`,
			want: []string{"user_history"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := fields(t, test.raw, CreateSchedule); !equal(got, test.want) {
				t.Fatalf("failing fields = %v, want %v", got, test.want)
			}
		})
	}
}

func TestUpdateScheduleTaskRules(t *testing.T) {
	t.Parallel()

	const id = "2b0c9a3e-4c4e-4d8a-9a59-7d6f3b8f6a10"
	task := func(fields string) string {
		return `{"schedule_data":[{"id":"` + id + `","date":"2024-01-02","task_description":"Walk"` + fields + `}]}`
	}

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "valid", raw: task(`,"priority":3,"is_completed":false`), want: nil},
		{name: "empty list", raw: `{"schedule_data":[]}`, want: nil},
		{name: "not an array", raw: `{"schedule_data":{"id":"x"}}`, want: []string{"schedule_data"}},
		{name: "item not an object", raw: `{"schedule_data":["2024-01-02"]}`, want: []string{"schedule_data"}},
		{
			name: "bad id and date",
			raw:  `{"schedule_data":[{"id":"x","date":"1999-99-99","task_description":"Walk","priority":3}]}`,
			want: []string{"schedule_data"},
		},
		{name: "priority out of range", raw: task(`,"priority":42`), want: []string{"schedule_data"}},
		{name: "fractional priority", raw: task(`,"priority":2.5`), want: []string{"schedule_data"}},
		{name: "missing priority", raw: task(``), want: []string{"schedule_data"}},
		{name: "is_completed not bool", raw: task(`,"priority":1,"is_completed":"yes"`), want: []string{"schedule_data"}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := fields(t, test.raw, UpdateSchedule); !equal(got, test.want) {
				t.Fatalf("failing fields = %v, want %v", got, test.want)
			}
		})
	}
}

func TestOptionalRulesSkipAbsentAndNull(t *testing.T) {
	t.Parallel()

	if got := fields(t, `{"notes":null,"task_id":"2b0c9a3e-4c4e-4d8a-9a59-7d6f3b8f6a10","is_completed":true}`, UpdateTaskCompletion); got != nil {
		t.Fatalf("unexpected failures %v", got)
	}
	if got := fields(t, `{"task_id":"2b0c9a3e-4c4e-4d8a-9a59-7d6f3b8f6a10","is_completed":"yes"}`, UpdateTaskCompletion); !equal(got, []string{"is_completed"}) {
		t.Fatalf("unexpected failures %v", got)
	}
	if got := fields(t, `{"missed_dates":["2024-01-02","bad"]}`, Reschedule); !equal(got, []string{"missed_dates"}) {
		t.Fatalf("unexpected failures %v", got)
	}
	if got := fields(t, `{}`, UpdateHabit); got != nil {
		t.Fatalf("empty partial update should pass, got %v", got)
	}
}

func TestIsEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"user@example.com", "first.last+tag@sub.example.org"}
	invalid := []string{"", "user", "user@", "@example.com", "Name <user@example.com>", "user@localhost"}

	for _, s := range valid {
		if !IsEmail(s, nil) {
			t.Fatalf("IsEmail(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsEmail(s, nil) {
			t.Fatalf("IsEmail(%q) = true, want false", s)
		}
	}
	if IsEmail(42.0, nil) {
		t.Fatal("IsEmail(number) = true, want false")
	}
}
