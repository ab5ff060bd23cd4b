package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ayush/habit-tracker/backend/internal/logger"
	"github.com/ayush/habit-tracker/backend/internal/models"
)

type gormUser struct {
	ID              string `gorm:"primaryKey"`
	Email           string `gorm:"uniqueIndex;not null"`
	Username        string `gorm:"not null"`
	PasswordHash    string `gorm:"not null"`
	CreatedAt       time.Time
	IsSetupComplete bool `gorm:"not null;default:false"`
}

func (gormUser) TableName() string { return "users" }

func (u *gormUser) model() *models.User {
	return &models.User{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		PasswordHash:    u.PasswordHash,
		CreatedAt:       u.CreatedAt,
		IsSetupComplete: u.IsSetupComplete,
	}
}

type gormHabit struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index;not null"`
	HabitName   string `gorm:"not null"`
	UserHistory string
	CreatedAt   time.Time
}

func (gormHabit) TableName() string { return "habits" }

func (h *gormHabit) model() *models.Habit {
	return &models.Habit{
		ID:          h.ID,
		UserID:      h.UserID,
		HabitName:   h.HabitName,
		UserHistory: h.UserHistory,
		CreatedAt:   h.CreatedAt,
	}
}

type gormSchedule struct {
	ID            string             `gorm:"primaryKey"`
	UserID        string             `gorm:"index;not null"`
	HabitID       string             `gorm:"index;not null"`
	ScheduleData  []models.DailyTask `gorm:"serializer:json"`
	GeneratedByAI bool
	LastUpdated   time.Time
	StartDate     string
	EndDate       string
}

func (gormSchedule) TableName() string { return "schedules" }

func (s *gormSchedule) model() *models.Schedule {
	tasks := s.ScheduleData
	if tasks == nil {
		tasks = []models.DailyTask{}
	}
	return &models.Schedule{
		ID:            s.ID,
		UserID:        s.UserID,
		HabitID:       s.HabitID,
		ScheduleData:  tasks,
		GeneratedByAI: s.GeneratedByAI,
		LastUpdated:   s.LastUpdated,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
	}
}

type gormTaskCompletion struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"uniqueIndex:idx_completion_user_task;not null"`
	TaskID      string `gorm:"uniqueIndex:idx_completion_user_task;not null"`
	TaskDate    string `gorm:"index"`
	IsCompleted bool
	CompletedAt *time.Time
	Notes       string
}

func (gormTaskCompletion) TableName() string { return "task_completions" }

func (c *gormTaskCompletion) model() *models.TaskCompletion {
	return &models.TaskCompletion{
		ID:          c.ID,
		UserID:      c.UserID,
		TaskID:      c.TaskID,
		TaskDate:    c.TaskDate,
		IsCompleted: c.IsCompleted,
		CompletedAt: c.CompletedAt,
		Notes:       c.Notes,
	}
}

// GormStore keeps every record in an embedded SQLite database.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database file at path and
// migrates the schema.
func OpenSQLite(path string) (*GormStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(
			logger.Logger,
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&gormUser{}, &gormHabit{}, &gormSchedule{}, &gormTaskCompletion{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// first loads the row matching the conditions into out; found is false when
// there is none.
func (s *GormStore) first(ctx context.Context, out any, query string, args ...any) (bool, error) {
	err := s.db.WithContext(ctx).Where(query, args...).First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Users

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	rec := gormUser{
		ID:           uuid.NewString(),
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("sqlite create user: %w", ErrConflict)
		}
		return nil, fmt.Errorf("sqlite create user: %w", err)
	}
	out := rec.model()
	out.PasswordHash = ""
	return out, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var rec gormUser
	found, err := s.first(ctx, &rec, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("sqlite get user: %w", err)
	}
	if !found {
		return nil, nil
	}
	out := rec.model()
	out.PasswordHash = ""
	return out, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var rec gormUser
	found, err := s.first(ctx, &rec, "email = ?", email)
	if err != nil {
		return nil, fmt.Errorf("sqlite get user by email: %w", err)
	}
	if !found {
		return nil, nil
	}
	return rec.model(), nil
}

func (s *GormStore) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	changes := map[string]any{}
	if update.Username != nil {
		changes["username"] = *update.Username
	}
	if update.IsSetupComplete != nil {
		changes["is_setup_complete"] = *update.IsSetupComplete
	}
	if len(changes) > 0 {
		err := s.db.WithContext(ctx).Model(&gormUser{}).Where("id = ?", id).Updates(changes).Error
		if err != nil {
			return nil, fmt.Errorf("sqlite update user: %w", err)
		}
	}
	return s.GetUserByID(ctx, id)
}

// Habits

func (s *GormStore) CreateHabit(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	rec := gormHabit{
		ID:          uuid.NewString(),
		UserID:      habit.UserID,
		HabitName:   habit.HabitName,
		UserHistory: habit.UserHistory,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("sqlite create habit: %w", err)
	}
	return rec.model(), nil
}

func (s *GormStore) ListHabitsByUser(ctx context.Context, userID string) ([]models.Habit, error) {
	var recs []gormHabit
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite list habits: %w", err)
	}
	habits := make([]models.Habit, 0, len(recs))
	for i := range recs {
		habits = append(habits, *recs[i].model())
	}
	return habits, nil
}

func (s *GormStore) GetHabit(ctx context.Context, id string) (*models.Habit, error) {
	var rec gormHabit
	found, err := s.first(ctx, &rec, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("sqlite get habit: %w", err)
	}
	if !found {
		return nil, nil
	}
	return rec.model(), nil
}

func (s *GormStore) UpdateHabit(ctx context.Context, id string, update models.HabitUpdate) (*models.Habit, error) {
	changes := map[string]any{}
	if update.HabitName != nil {
		changes["habit_name"] = *update.HabitName
	}
	if update.UserHistory != nil {
		changes["user_history"] = *update.UserHistory
	}
	if len(changes) > 0 {
		err := s.db.WithContext(ctx).Model(&gormHabit{}).Where("id = ?", id).Updates(changes).Error
		if err != nil {
			return nil, fmt.Errorf("sqlite update habit: %w", err)
		}
	}
	return s.GetHabit(ctx, id)
}

func (s *GormStore) DeleteHabit(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&gormHabit{}).Error; err != nil {
		return fmt.Errorf("sqlite delete habit: %w", err)
	}
	return nil
}

// Schedules

func (s *GormStore) CreateSchedule(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	rec := gormSchedule{
		ID:            uuid.NewString(),
		UserID:        schedule.UserID,
		HabitID:       schedule.HabitID,
		ScheduleData:  schedule.ScheduleData,
		GeneratedByAI: schedule.GeneratedByAI,
		LastUpdated:   time.Now().UTC(),
		StartDate:     schedule.StartDate,
		EndDate:       schedule.EndDate,
	}
	if rec.ScheduleData == nil {
		rec.ScheduleData = []models.DailyTask{}
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("sqlite create schedule: %w", err)
	}
	return rec.model(), nil
}

func (s *GormStore) ListSchedulesByUser(ctx context.Context, userID string) ([]models.Schedule, error) {
	var recs []gormSchedule
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("last_updated DESC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite list schedules: %w", err)
	}
	schedules := make([]models.Schedule, 0, len(recs))
	for i := range recs {
		schedules = append(schedules, *recs[i].model())
	}
	return schedules, nil
}

func (s *GormStore) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var rec gormSchedule
	found, err := s.first(ctx, &rec, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("sqlite get schedule: %w", err)
	}
	if !found {
		return nil, nil
	}
	return rec.model(), nil
}

// UpdateSchedule applies the update to the loaded row and saves it whole so
// the serialized task list is rewritten.
func (s *GormStore) UpdateSchedule(ctx context.Context, id string, update models.ScheduleUpdate) (*models.Schedule, error) {
	var rec gormSchedule
	found, err := s.first(ctx, &rec, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("sqlite update schedule: %w", err)
	}
	if !found {
		return nil, nil
	}

	schedule := rec.model()
	ApplyScheduleUpdate(schedule, update, time.Now().UTC())
	rec.ScheduleData = schedule.ScheduleData
	rec.GeneratedByAI = schedule.GeneratedByAI
	rec.StartDate = schedule.StartDate
	rec.EndDate = schedule.EndDate
	rec.LastUpdated = schedule.LastUpdated

	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return nil, fmt.Errorf("sqlite update schedule: %w", err)
	}
	return rec.model(), nil
}

func (s *GormStore) DeleteSchedule(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&gormSchedule{}).Error; err != nil {
		return fmt.Errorf("sqlite delete schedule: %w", err)
	}
	return nil
}

// Task completions

func (s *GormStore) UpsertTaskCompletion(ctx context.Context, completion *models.TaskCompletion) (*models.TaskCompletion, error) {
	rec := gormTaskCompletion{
		ID:          uuid.NewString(),
		UserID:      completion.UserID,
		TaskID:      completion.TaskID,
		TaskDate:    completion.TaskDate,
		IsCompleted: completion.IsCompleted,
		CompletedAt: completion.CompletedAt,
		Notes:       completion.Notes,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "task_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"task_date", "is_completed", "completed_at", "notes"}),
	}).Create(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite upsert task completion: %w", err)
	}

	var saved gormTaskCompletion
	found, err := s.first(ctx, &saved, "user_id = ? AND task_id = ?", completion.UserID, completion.TaskID)
	if err != nil {
		return nil, fmt.Errorf("sqlite reload task completion: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("sqlite reload task completion: %w", gorm.ErrRecordNotFound)
	}
	return saved.model(), nil
}

func (s *GormStore) ListTaskCompletions(ctx context.Context, userID string, dates models.DateRange) ([]models.TaskCompletion, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if dates.StartDate != "" {
		q = q.Where("task_date >= ?", dates.StartDate)
	}
	if dates.EndDate != "" {
		q = q.Where("task_date <= ?", dates.EndDate)
	}

	var recs []gormTaskCompletion
	if err := q.Order("task_date ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("sqlite list task completions: %w", err)
	}
	completions := make([]models.TaskCompletion, 0, len(recs))
	for i := range recs {
		completions = append(completions, *recs[i].model())
	}
	return completions, nil
}

func (s *GormStore) GetTaskCompletion(ctx context.Context, id string) (*models.TaskCompletion, error) {
	var rec gormTaskCompletion
	found, err := s.first(ctx, &rec, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("sqlite get task completion: %w", err)
	}
	if !found {
		return nil, nil
	}
	return rec.model(), nil
}

func (s *GormStore) GetTaskCompletionByTask(ctx context.Context, userID, taskID string) (*models.TaskCompletion, error) {
	var rec gormTaskCompletion
	found, err := s.first(ctx, &rec, "user_id = ? AND task_id = ?", userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("sqlite get task completion by task: %w", err)
	}
	if !found {
		return nil, nil
	}
	return rec.model(), nil
}

var _ Store = (*GormStore)(nil)
