package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/types"
)

// RedisStore is a Redis-based implementation of Store, suitable for
// distributed deployments where several coordinator processes share
// task history. Task context and results live in plain keys; execution
// history uses a list per task so write order is preserved.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisStore creates a Redis-backed store and verifies connectivity.
func NewRedisStore(cfg config.RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, "failed to connect to Redis").WithCause(err).WithRetryable(true)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "swarmflow:"
	}

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger.With(zap.String("component", "memory_store_redis")),
	}, nil
}

// Close closes the store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if the store is healthy.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// taskKey returns the Redis key for a task context.
func (s *RedisStore) taskKey(taskID string) string {
	return s.keyPrefix + "task:" + taskID
}

// executionsKey returns the Redis key for a task's execution history.
func (s *RedisStore) executionsKey(taskID string) string {
	return s.keyPrefix + "executions:" + taskID
}

// resultKey returns the Redis key for an aggregated result.
func (s *RedisStore) resultKey(taskID string) string {
	return s.keyPrefix + "result:" + taskID
}

// sharedKey returns the Redis key for a shared context entry.
func (s *RedisStore) sharedKey(key string) string {
	return s.keyPrefix + "shared:" + key
}

// StoreTaskContext persists the submitted task.
func (s *RedisStore) StoreTaskContext(ctx context.Context, task types.Task) error {
	if task.ID == "" {
		return types.NewError(types.ErrInvalidConfiguration, "task id is required")
	}

	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.taskKey(task.ID), data, 0).Err()
}

// StoreExecution appends one execution record to the task's history.
func (s *RedisStore) StoreExecution(ctx context.Context, record ExecutionRecord) error {
	if record.TaskID == "" {
		return types.NewError(types.ErrInvalidConfiguration, "execution record task id is required")
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, s.executionsKey(record.TaskID), data).Err()
}

// StoreAggregatedResult persists the final result of a task.
func (s *RedisStore) StoreAggregatedResult(ctx context.Context, result *types.AggregatedResult) error {
	if result == nil || result.TaskID == "" {
		return types.NewError(types.ErrInvalidConfiguration, "aggregated result task id is required")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.resultKey(result.TaskID), data, 0).Err()
}

// ShareContext publishes a shared context entry.
func (s *RedisStore) ShareContext(ctx context.Context, shared SharedContext) error {
	if shared.Key == "" {
		return types.NewError(types.ErrInvalidConfiguration, "shared context key is required")
	}
	shared.UpdatedAt = time.Now()

	data, err := json.Marshal(shared)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.sharedKey(shared.Key), data, 0).Err()
}

// TaskContext reads back a stored task.
func (s *RedisStore) TaskContext(ctx context.Context, taskID string) (*types.Task, error) {
	data, err := s.client.Get(ctx, s.taskKey(taskID)).Bytes()
	if err == redis.Nil {
		return nil, types.NewError(types.ErrNotFound, "task context not found: "+taskID)
	}
	if err != nil {
		return nil, err
	}

	var task types.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Executions reads back the execution history of a task in write order.
func (s *RedisStore) Executions(ctx context.Context, taskID string) ([]ExecutionRecord, error) {
	entries, err := s.client.LRange(ctx, s.executionsKey(taskID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	records := make([]ExecutionRecord, 0, len(entries))
	for _, entry := range entries {
		var record ExecutionRecord
		if err := json.Unmarshal([]byte(entry), &record); err != nil {
			s.logger.Warn("skipping malformed execution record",
				zap.String("task_id", taskID),
				zap.Error(err),
			)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// AggregatedResult reads back a stored result.
func (s *RedisStore) AggregatedResult(ctx context.Context, taskID string) (*types.AggregatedResult, error) {
	data, err := s.client.Get(ctx, s.resultKey(taskID)).Bytes()
	if err == redis.Nil {
		return nil, types.NewError(types.ErrNotFound, "aggregated result not found: "+taskID)
	}
	if err != nil {
		return nil, err
	}

	var result types.AggregatedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SharedContextByKey reads back a shared entry.
func (s *RedisStore) SharedContextByKey(ctx context.Context, key string) (*SharedContext, error) {
	data, err := s.client.Get(ctx, s.sharedKey(key)).Bytes()
	if err == redis.Nil {
		return nil, types.NewError(types.ErrNotFound, "shared context not found: "+key)
	}
	if err != nil {
		return nil, err
	}

	var shared SharedContext
	if err := json.Unmarshal(data, &shared); err != nil {
		return nil, err
	}
	return &shared, nil
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
