package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/habit-tracker/backend/internal/models"
)

// MongoStore handles habit, schedule and task-completion documents in MongoDB.
type MongoStore struct {
	habits      *mongo.Collection
	schedules   *mongo.Collection
	completions *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		habits:      db.Collection("habits"),
		schedules:   db.Collection("schedules"),
		completions: db.Collection("task_completions"),
	}
}

// EnsureIndexes creates the lookup indexes and the one-completion-per-task
// constraint.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	byUser := mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}}
	if _, err := s.habits.Indexes().CreateOne(ctx, byUser); err != nil {
		return fmt.Errorf("mongo habits index: %w", err)
	}
	if _, err := s.schedules.Indexes().CreateOne(ctx, byUser); err != nil {
		return fmt.Errorf("mongo schedules index: %w", err)
	}
	_, err := s.completions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "task_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo task_completions index: %w", err)
	}
	return nil
}

// findOne decodes the document with the given id into out; found is false
// when there is none.
func findOne(ctx context.Context, col *mongo.Collection, id string, out any) (bool, error) {
	return findBy(ctx, col, bson.M{"_id": id}, out)
}

func findBy(ctx context.Context, col *mongo.Collection, filter bson.M, out any) (bool, error) {
	err := col.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Habits

func (s *MongoStore) CreateHabit(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	doc := *habit
	doc.ID = uuid.NewString()
	doc.CreatedAt = time.Now().UTC()
	if _, err := s.habits.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("mongo insert habit: %w", err)
	}
	return &doc, nil
}

func (s *MongoStore) ListHabitsByUser(ctx context.Context, userID string) ([]models.Habit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.habits.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list habits: %w", err)
	}
	defer cur.Close(ctx)

	habits := []models.Habit{}
	if err := cur.All(ctx, &habits); err != nil {
		return nil, fmt.Errorf("mongo list habits: %w", err)
	}
	return habits, nil
}

func (s *MongoStore) GetHabit(ctx context.Context, id string) (*models.Habit, error) {
	var habit models.Habit
	found, err := findOne(ctx, s.habits, id, &habit)
	if err != nil {
		return nil, fmt.Errorf("mongo get habit: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &habit, nil
}

func (s *MongoStore) UpdateHabit(ctx context.Context, id string, update models.HabitUpdate) (*models.Habit, error) {
	set := bson.M{}
	if update.HabitName != nil {
		set["habit_name"] = *update.HabitName
	}
	if update.UserHistory != nil {
		set["user_history"] = *update.UserHistory
	}
	if len(set) == 0 {
		return s.GetHabit(ctx, id)
	}

	var habit models.Habit
	err := s.habits.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&habit)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo update habit: %w", err)
	}
	return &habit, nil
}

func (s *MongoStore) DeleteHabit(ctx context.Context, id string) error {
	if _, err := s.habits.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo delete habit: %w", err)
	}
	return nil
}

// Schedules

func (s *MongoStore) CreateSchedule(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	doc := *schedule
	doc.ID = uuid.NewString()
	doc.LastUpdated = time.Now().UTC()
	if doc.ScheduleData == nil {
		doc.ScheduleData = []models.DailyTask{}
	}
	if _, err := s.schedules.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("mongo insert schedule: %w", err)
	}
	return &doc, nil
}

func (s *MongoStore) ListSchedulesByUser(ctx context.Context, userID string) ([]models.Schedule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_updated", Value: -1}})
	cur, err := s.schedules.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list schedules: %w", err)
	}
	defer cur.Close(ctx)

	schedules := []models.Schedule{}
	if err := cur.All(ctx, &schedules); err != nil {
		return nil, fmt.Errorf("mongo list schedules: %w", err)
	}
	return schedules, nil
}

func (s *MongoStore) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var schedule models.Schedule
	found, err := findOne(ctx, s.schedules, id, &schedule)
	if err != nil {
		return nil, fmt.Errorf("mongo get schedule: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &schedule, nil
}

func (s *MongoStore) UpdateSchedule(ctx context.Context, id string, update models.ScheduleUpdate) (*models.Schedule, error) {
	set := bson.M{"last_updated": time.Now().UTC()}
	if update.ScheduleData != nil {
		set["schedule_data"] = *update.ScheduleData
	}
	if update.GeneratedByAI != nil {
		set["generated_by_ai"] = *update.GeneratedByAI
	}
	if update.StartDate != nil {
		set["start_date"] = *update.StartDate
	}
	if update.EndDate != nil {
		set["end_date"] = *update.EndDate
	}

	var schedule models.Schedule
	err := s.schedules.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&schedule)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo update schedule: %w", err)
	}
	return &schedule, nil
}

func (s *MongoStore) DeleteSchedule(ctx context.Context, id string) error {
	if _, err := s.schedules.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo delete schedule: %w", err)
	}
	return nil
}

// Task completions

func (s *MongoStore) UpsertTaskCompletion(ctx context.Context, completion *models.TaskCompletion) (*models.TaskCompletion, error) {
	filter := bson.M{"user_id": completion.UserID, "task_id": completion.TaskID}
	set := bson.M{
		"task_date":    completion.TaskDate,
		"is_completed": completion.IsCompleted,
		"completed_at": completion.CompletedAt,
		"notes":        completion.Notes,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": uuid.NewString()},
	}

	var saved models.TaskCompletion
	err := s.completions.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).Decode(&saved)
	if err != nil {
		return nil, fmt.Errorf("mongo upsert task completion: %w", err)
	}
	return &saved, nil
}

func (s *MongoStore) ListTaskCompletions(ctx context.Context, userID string, dates models.DateRange) ([]models.TaskCompletion, error) {
	filter := bson.M{"user_id": userID}
	dateFilter := bson.M{}
	if dates.StartDate != "" {
		dateFilter["$gte"] = dates.StartDate
	}
	if dates.EndDate != "" {
		dateFilter["$lte"] = dates.EndDate
	}
	if len(dateFilter) > 0 {
		filter["task_date"] = dateFilter
	}

	opts := options.Find().SetSort(bson.D{{Key: "task_date", Value: 1}})
	cur, err := s.completions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list task completions: %w", err)
	}
	defer cur.Close(ctx)

	completions := []models.TaskCompletion{}
	if err := cur.All(ctx, &completions); err != nil {
		return nil, fmt.Errorf("mongo list task completions: %w", err)
	}
	return completions, nil
}

func (s *MongoStore) GetTaskCompletion(ctx context.Context, id string) (*models.TaskCompletion, error) {
	var completion models.TaskCompletion
	found, err := findOne(ctx, s.completions, id, &completion)
	if err != nil {
		return nil, fmt.Errorf("mongo get task completion: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &completion, nil
}

func (s *MongoStore) GetTaskCompletionByTask(ctx context.Context, userID, taskID string) (*models.TaskCompletion, error) {
	var completion models.TaskCompletion
	found, err := findBy(ctx, s.completions, bson.M{"user_id": userID, "task_id": taskID}, &completion)
	if err != nil {
		return nil, fmt.Errorf("mongo get task completion by task: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &completion, nil
}
