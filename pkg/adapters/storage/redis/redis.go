// Package redis persists orchestration results in Redis with a bounded
// TTL, so results outlive the process but not the retention window.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/domain"
)

const resultKeyPrefix = "cascade:result:"

// ResultStorage implements ports.ResultStorage on Redis.
type ResultStorage struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewResultStorage creates a Redis result store. Results expire after ttl.
func NewResultStorage(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ResultStorage {
	return &ResultStorage{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Save serializes the result and stores it under its task ID with the
// configured TTL.
func (s *ResultStorage) Save(ctx context.Context, result *domain.OrchestrationResult) error {
	if result == nil || result.TaskID == "" {
		return fmt.Errorf("result must have a task ID")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := s.client.Set(ctx, resultKey(result.TaskID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	s.logger.Debug("result saved",
		zap.String("run_id", result.TaskID),
		zap.String("status", string(result.Status)))

	return nil
}

// Get loads and deserializes the result for the task ID.
func (s *ResultStorage) Get(ctx context.Context, taskID string) (*domain.OrchestrationResult, error) {
	data, err := s.client.Get(ctx, resultKey(taskID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("result not found: %s", taskID)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var result domain.OrchestrationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// List scans for all stored result keys and returns their task IDs.
func (s *ResultStorage) List(ctx context.Context) ([]string, error) {
	var cursor uint64
	var keys []string

	for {
		batch, next, err := s.client.Scan(ctx, cursor, resultKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, resultKeyPrefix))
	}
	return ids, nil
}

// Delete removes the result for the task ID.
func (s *ResultStorage) Delete(ctx context.Context, taskID string) error {
	if err := s.client.Del(ctx, resultKey(taskID)).Err(); err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return nil
}

func resultKey(taskID string) string {
	return resultKeyPrefix + taskID
}
