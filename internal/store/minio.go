package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ayush/habit-tracker/backend/internal/models"
)

// MinioStore archives generation transcripts in an object bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

// TranscriptKey is the object key of a schedule's transcript.
func TranscriptKey(userID, scheduleID string) string {
	return userID + "/" + scheduleID + "/transcript.json"
}

// SaveTranscript overwrites the transcript stored for the schedule.
func (s *MinioStore) SaveTranscript(ctx context.Context, userID string, t *models.Transcript) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, TranscriptKey(userID, t.ScheduleID),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("minio put transcript: %w", err)
	}
	return nil
}

// LoadTranscript returns nil when no transcript has been archived.
func (s *MinioStore) LoadTranscript(ctx context.Context, userID, scheduleID string) (*models.Transcript, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, TranscriptKey(userID, scheduleID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get transcript: %w", err)
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		if isMissingObject(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("minio stat transcript: %w", err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("minio read transcript: %w", err)
	}
	var t models.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &t, nil
}

// DeleteTranscript removes the schedule's transcript; a missing object is
// not an error.
func (s *MinioStore) DeleteTranscript(ctx context.Context, userID, scheduleID string) error {
	err := s.client.RemoveObject(ctx, s.bucket, TranscriptKey(userID, scheduleID), minio.RemoveObjectOptions{})
	if err != nil && !isMissingObject(err) {
		return fmt.Errorf("minio remove transcript: %w", err)
	}
	return nil
}

func isMissingObject(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
