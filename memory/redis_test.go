package memory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/types"
)

func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(config.RedisConfig{
		Addr:      mr.Addr(),
		KeyPrefix: "swarmflow_test:",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestRedisStore_TaskContextRoundTrip(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	task := types.Task{
		ID:          "task-1",
		Description: "summarize quarterly numbers",
		Supervision: types.SupervisionMinimal,
	}
	require.NoError(t, store.StoreTaskContext(ctx, task))

	got, err := store.TaskContext(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, task.Description, got.Description)

	_, err = store.TaskContext(ctx, "missing")
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestRedisStore_ExecutionsPreserveWriteOrder(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	for _, agentID := range []string{"a1", "a2", "a3"} {
		require.NoError(t, store.StoreExecution(ctx, ExecutionRecord{
			TaskID:    "task-1",
			SubTaskID: "st-" + agentID,
			AgentID:   agentID,
			Role:      types.RoleResearch,
			Success:   true,
		}))
	}

	records, err := store.Executions(ctx, "task-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a1", records[0].AgentID)
	assert.Equal(t, "a3", records[2].AgentID)
	assert.False(t, records[0].RecordedAt.IsZero())
}

func TestRedisStore_AggregatedResultRoundTrip(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	result := &types.AggregatedResult{
		TaskID:       "task-1",
		Success:      true,
		QualityScore: 0.9,
	}
	require.NoError(t, store.StoreAggregatedResult(ctx, result))

	got, err := store.AggregatedResult(ctx, "task-1")
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, 0.9, got.QualityScore)
}

func TestRedisStore_SharedContext(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.ShareContext(ctx, SharedContext{
		Key:           "market-overview",
		Content:       "rates unchanged",
		SourceAgentID: "agent-research",
	}))

	got, err := store.SharedContextByKey(ctx, "market-overview")
	require.NoError(t, err)
	assert.Equal(t, "rates unchanged", got.Content)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestRedisStore_RejectsEmptyIdentifiers(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	assert.Error(t, store.StoreTaskContext(ctx, types.Task{}))
	assert.Error(t, store.StoreExecution(ctx, ExecutionRecord{}))
	assert.Error(t, store.StoreAggregatedResult(ctx, &types.AggregatedResult{}))
	assert.Error(t, store.ShareContext(ctx, SharedContext{}))
}
