package swarmflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/coordinator"
	"github.com/BaSui01/swarmflow/types"
)

func stubInvoker() coordinator.AgentInvoker {
	return coordinator.InvokerFunc(func(ctx context.Context, agent types.Agent, subtask types.SubTask) (*types.TaskResult, error) {
		return &types.TaskResult{Success: true, Output: "ok", Confidence: 1}, nil
	})
}

func TestNewRequiresInvoker(t *testing.T) {
	t.Parallel()

	_, err := New()
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidConfiguration))
}

func TestNewWithDefaults(t *testing.T) {
	t.Parallel()

	c, err := New(WithInvoker(stubInvoker()))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	require.NoError(t, c.RegisterAgent(types.Agent{ID: "research-1", Role: types.RoleResearch}))

	result := c.ExecuteComplexTask(context.Background(), types.Task{ID: "task-1", Description: "demo"})
	require.Nil(t, result.Err)
	assert.True(t, result.Success)
}

func TestNewWithExplicitConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Consensus.DefaultThreshold = 2 // invalid on purpose

	_, err := New(WithConfig(cfg), WithInvoker(stubInvoker()))
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidConfiguration))
}
