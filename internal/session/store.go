// Package session persists practice and interview state in Redis so that
// sessions survive process restarts and can be resumed.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/practice-engine/internal/models"
)

// ErrNoSession is returned when no snapshot exists for the user
var ErrNoSession = errors.New("no active session")

// Connect creates a Redis client and verifies connectivity
func Connect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// Store reads and writes session snapshots
type Store struct {
	client       *redis.Client
	interviewTTL time.Duration
}

// NewStore creates a session store. interviewTTL bounds how long an
// abandoned interview stays resumable; practice sessions do not expire.
func NewStore(client *redis.Client, interviewTTL time.Duration) *Store {
	if interviewTTL <= 0 {
		interviewTTL = 24 * time.Hour
	}
	return &Store{client: client, interviewTTL: interviewTTL}
}

func practiceKey(userID string) string {
	return fmt.Sprintf("practice:user:%s:problem", userID)
}

func interviewKey(userID string) string {
	return fmt.Sprintf("practice:user:%s:interview", userID)
}

// SavePractice writes the practice session snapshot
func (s *Store) SavePractice(ctx context.Context, sess *models.PracticeSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal practice session: %w", err)
	}
	if err := s.client.Set(ctx, practiceKey(sess.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save practice session: %w", err)
	}
	return nil
}

// LoadPractice reads the practice session snapshot for a user
func (s *Store) LoadPractice(ctx context.Context, userID string) (*models.PracticeSession, error) {
	data, err := s.client.Get(ctx, practiceKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load practice session: %w", err)
	}

	var sess models.PracticeSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal practice session: %w", err)
	}
	return &sess, nil
}

// DeletePractice removes the practice session snapshot
func (s *Store) DeletePractice(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, practiceKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete practice session: %w", err)
	}
	return nil
}

// SaveInterview writes the interview session snapshot with the resume TTL
func (s *Store) SaveInterview(ctx context.Context, sess *models.InterviewSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal interview session: %w", err)
	}
	if err := s.client.Set(ctx, interviewKey(sess.UserID), data, s.interviewTTL).Err(); err != nil {
		return fmt.Errorf("failed to save interview session: %w", err)
	}
	return nil
}

// LoadInterview reads the interview session snapshot for a user
func (s *Store) LoadInterview(ctx context.Context, userID string) (*models.InterviewSession, error) {
	data, err := s.client.Get(ctx, interviewKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load interview session: %w", err)
	}

	var sess models.InterviewSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interview session: %w", err)
	}
	return &sess, nil
}

// DeleteInterview removes the interview session snapshot
func (s *Store) DeleteInterview(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, interviewKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete interview session: %w", err)
	}
	return nil
}

// Ping verifies Redis connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis connection
func (s *Store) Close() error {
	slog.Info("closing session store")
	return s.client.Close()
}
