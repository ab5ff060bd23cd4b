// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayush/habit-tracker/backend/internal/models"
	"github.com/ayush/habit-tracker/backend/internal/store"
)

// Memory implements store.Store with maps guarded by a mutex. Values are
// copied on the way in and out so callers cannot alias stored state.
type Memory struct {
	mu          sync.Mutex
	users       map[string]models.User
	habits      map[string]models.Habit
	schedules   map[string]models.Schedule
	completions map[string]models.TaskCompletion

	// Err, when set, is returned by every method.
	Err error
}

func NewMemory() *Memory {
	return &Memory{
		users:       map[string]models.User{},
		habits:      map[string]models.Habit{},
		schedules:   map[string]models.Schedule{},
		completions: map[string]models.TaskCompletion{},
	}
}

var _ store.Store = (*Memory)(nil)

func cloneSchedule(s models.Schedule) models.Schedule {
	s.ScheduleData = append([]models.DailyTask{}, s.ScheduleData...)
	return s
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, store.ErrConflict
		}
	}
	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	u.IsSetupComplete = false
	m.users[u.ID] = u
	u.PasswordHash = ""
	return &u, nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u.PasswordHash = ""
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpdateUser(_ context.Context, id string, update models.UserUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	store.ApplyUserUpdate(&u, update)
	m.users[id] = u
	u.PasswordHash = ""
	return &u, nil
}

func (m *Memory) CreateHabit(_ context.Context, habit *models.Habit) (*models.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	h := *habit
	h.ID = uuid.NewString()
	h.CreatedAt = time.Now().UTC()
	m.habits[h.ID] = h
	return &h, nil
}

func (m *Memory) ListHabitsByUser(_ context.Context, userID string) ([]models.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	habits := []models.Habit{}
	for _, h := range m.habits {
		if h.UserID == userID {
			habits = append(habits, h)
		}
	}
	sort.Slice(habits, func(i, j int) bool { return habits[i].CreatedAt.After(habits[j].CreatedAt) })
	return habits, nil
}

func (m *Memory) GetHabit(_ context.Context, id string) (*models.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	h, ok := m.habits[id]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (m *Memory) UpdateHabit(_ context.Context, id string, update models.HabitUpdate) (*models.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	h, ok := m.habits[id]
	if !ok {
		return nil, nil
	}
	store.ApplyHabitUpdate(&h, update)
	m.habits[id] = h
	return &h, nil
}

func (m *Memory) DeleteHabit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.habits, id)
	return nil
}

func (m *Memory) CreateSchedule(_ context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s := cloneSchedule(*schedule)
	s.ID = uuid.NewString()
	s.LastUpdated = time.Now().UTC()
	m.schedules[s.ID] = s
	out := cloneSchedule(s)
	return &out, nil
}

func (m *Memory) ListSchedulesByUser(_ context.Context, userID string) ([]models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	schedules := []models.Schedule{}
	for _, s := range m.schedules {
		if s.UserID == userID {
			schedules = append(schedules, cloneSchedule(s))
		}
	}
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].LastUpdated.After(schedules[j].LastUpdated) })
	return schedules, nil
}

func (m *Memory) GetSchedule(_ context.Context, id string) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.schedules[id]
	if !ok {
		return nil, nil
	}
	out := cloneSchedule(s)
	return &out, nil
}

func (m *Memory) UpdateSchedule(_ context.Context, id string, update models.ScheduleUpdate) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.schedules[id]
	if !ok {
		return nil, nil
	}
	store.ApplyScheduleUpdate(&s, update, time.Now().UTC())
	m.schedules[id] = s
	out := cloneSchedule(s)
	return &out, nil
}

func (m *Memory) DeleteSchedule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.schedules, id)
	return nil
}

func (m *Memory) UpsertTaskCompletion(_ context.Context, completion *models.TaskCompletion) (*models.TaskCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c := *completion
	c.ID = uuid.NewString()
	for id, existing := range m.completions {
		if existing.UserID == c.UserID && existing.TaskID == c.TaskID {
			c.ID = id
			break
		}
	}
	m.completions[c.ID] = c
	return &c, nil
}

func (m *Memory) ListTaskCompletions(_ context.Context, userID string, dates models.DateRange) ([]models.TaskCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	completions := []models.TaskCompletion{}
	for _, c := range m.completions {
		if c.UserID == userID && dates.Contains(c.TaskDate) {
			completions = append(completions, c)
		}
	}
	sort.Slice(completions, func(i, j int) bool { return completions[i].TaskDate < completions[j].TaskDate })
	return completions, nil
}

func (m *Memory) GetTaskCompletion(_ context.Context, id string) (*models.TaskCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.completions[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) GetTaskCompletionByTask(_ context.Context, userID, taskID string) (*models.TaskCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, c := range m.completions {
		if c.UserID == userID && c.TaskID == taskID {
			return &c, nil
		}
	}
	return nil, nil
}
