package coordinator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/memory"
	"github.com/BaSui01/swarmflow/supervisor"
	"github.com/BaSui01/swarmflow/types"
)

// echoInvoker answers every subtask successfully with a fixed output.
func echoInvoker(output string, confidence float64) AgentInvoker {
	return InvokerFunc(func(ctx context.Context, agent types.Agent, subtask types.SubTask) (*types.TaskResult, error) {
		return &types.TaskResult{
			Success:    true,
			Output:     output,
			Confidence: confidence,
		}, nil
	})
}

type executorFixture struct {
	registry *AgentRegistry
	balancer *LoadBalancer
	store    memory.Store
}

func newExecutorFixture(t *testing.T, invoker AgentInvoker, sup supervisor.Supervisor, review config.ReviewMode) (*Executor, *executorFixture) {
	t.Helper()

	registry := NewAgentRegistry(nil)
	balancer := NewLoadBalancer(registry, nil)
	store := memory.NewInMemoryStore(nil)
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultExecutorConfig()
	executor := NewExecutor(registry, balancer, invoker, sup, store, cfg, review, nil)
	return executor, &executorFixture{registry: registry, balancer: balancer, store: store}
}

func (f *executorFixture) assign(t *testing.T, subtasks ...types.SubTask) []types.TaskAssignment {
	t.Helper()
	assignments, unassigned := f.balancer.Assign(subtasks)
	require.Empty(t, unassigned)
	return assignments
}

func TestExecutorRunsAllAssignments(t *testing.T) {
	t.Parallel()

	executor, fixture := newExecutorFixture(t, echoInvoker("done", 0.8), supervisor.NewScripted(nil), config.ReviewAdvisory)
	for i := 0; i < 4; i++ {
		require.NoError(t, fixture.registry.Register(newAgent(fmt.Sprintf("research-%d", i), types.RoleResearch)))
	}

	subtasks := make([]types.SubTask, 4)
	for i := range subtasks {
		subtasks[i] = subtaskFor(types.RoleResearch, i)
		subtasks[i].ID = fmt.Sprintf("sub-%d", i)
	}
	assignments := fixture.assign(t, subtasks...)

	results, err := executor.ExecuteAll(context.Background(), "task-1", assignments, types.SupervisionNone)
	require.NoError(t, err)
	require.Len(t, results, 4)

	seenIndexes := make(map[int]bool)
	for i, result := range results {
		assert.True(t, result.Success)
		assert.Equal(t, assignments[i].SubTask.ID, result.SubTaskID)
		assert.Equal(t, assignments[i].AgentID, result.AgentID)
		assert.Equal(t, types.RoleResearch, result.Role)
		seenIndexes[result.CompletionIndex] = true
	}
	assert.Len(t, seenIndexes, 4, "completion indexes must be distinct")

	// all agents returned to the pool
	assert.Equal(t, 4, fixture.registry.AvailableCount())

	// executions recorded to the memory store
	records, err := fixture.store.Executions(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestExecutorIsolatesFailures(t *testing.T) {
	t.Parallel()

	invoker := InvokerFunc(func(ctx context.Context, agent types.Agent, subtask types.SubTask) (*types.TaskResult, error) {
		if agent.ID == "research-bad" {
			return nil, errors.New("model unreachable")
		}
		return &types.TaskResult{Success: true, Output: "ok", Confidence: 1}, nil
	})
	executor, fixture := newExecutorFixture(t, invoker, supervisor.NewScripted(nil), config.ReviewAdvisory)
	require.NoError(t, fixture.registry.Register(newAgent("research-bad", types.RoleResearch)))
	require.NoError(t, fixture.registry.Register(newAgent("research-good", types.RoleResearch)))

	one := subtaskFor(types.RoleResearch, 0)
	two := subtaskFor(types.RoleResearch, 1)
	two.ID = "sub-2"
	assignments := fixture.assign(t, one, two)

	results, err := executor.ExecuteAll(context.Background(), "task-1", assignments, types.SupervisionNone)
	require.NoError(t, err, "one failed invocation must not abort the batch")
	require.Len(t, results, 2)

	byAgent := make(map[string]types.TaskResult)
	for _, result := range results {
		byAgent[result.AgentID] = result
	}
	assert.False(t, byAgent["research-bad"].Success)
	assert.Contains(t, byAgent["research-bad"].Error, "agent invocation failed")
	assert.True(t, byAgent["research-good"].Success)

	// the failing agent still returns to the pool; failure marking is the
	// recovery manager's call, not the executor's
	assert.Equal(t, 2, fixture.registry.AvailableCount())
}

func TestExecutorGatingReviewRejects(t *testing.T) {
	t.Parallel()

	rejectAll := supervisor.NewScripted(nil, supervisor.WithReview(
		func(ctx context.Context, result *types.AggregatedResult, task types.Task) (*types.ReviewResult, error) {
			return &types.ReviewResult{Approved: false, Feedback: "insufficient evidence"}, nil
		}))
	executor, fixture := newExecutorFixture(t, echoInvoker("done", 0.9), rejectAll, config.ReviewGating)
	require.NoError(t, fixture.registry.Register(newAgent("research-1", types.RoleResearch)))

	assignments := fixture.assign(t, subtaskFor(types.RoleResearch, 0))
	results, err := executor.ExecuteAll(context.Background(), "task-1", assignments, types.SupervisionFull)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.False(t, results[0].Success, "gating mode fails results the supervisor rejects")
	assert.Contains(t, results[0].Error, "insufficient evidence")
	require.NotNil(t, results[0].Review)
}

func TestExecutorAdvisoryReviewAttachesOnly(t *testing.T) {
	t.Parallel()

	rejectAll := supervisor.NewScripted(nil, supervisor.WithReview(
		func(ctx context.Context, result *types.AggregatedResult, task types.Task) (*types.ReviewResult, error) {
			return &types.ReviewResult{Approved: false, Feedback: "would not ship"}, nil
		}))
	executor, fixture := newExecutorFixture(t, echoInvoker("done", 0.9), rejectAll, config.ReviewAdvisory)
	require.NoError(t, fixture.registry.Register(newAgent("research-1", types.RoleResearch)))

	assignments := fixture.assign(t, subtaskFor(types.RoleResearch, 0))
	results, err := executor.ExecuteAll(context.Background(), "task-1", assignments, types.SupervisionFull)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, results[0].Success, "advisory mode leaves the result standing")
	require.NotNil(t, results[0].Review)
	assert.Equal(t, "would not ship", results[0].Review.Feedback)
}

func TestExecutorMinimalSupervisionSkipsReview(t *testing.T) {
	t.Parallel()

	reviewCalls := 0
	counting := supervisor.NewScripted(nil, supervisor.WithReview(
		func(ctx context.Context, result *types.AggregatedResult, task types.Task) (*types.ReviewResult, error) {
			reviewCalls++
			return &types.ReviewResult{Approved: true}, nil
		}))
	executor, fixture := newExecutorFixture(t, echoInvoker("done", 0.9), counting, config.ReviewGating)
	require.NoError(t, fixture.registry.Register(newAgent("research-1", types.RoleResearch)))

	assignments := fixture.assign(t, subtaskFor(types.RoleResearch, 0))
	results, err := executor.ExecuteAll(context.Background(), "task-1", assignments, types.SupervisionMinimal)
	require.NoError(t, err)
	assert.True(t, results[0].Success)
	assert.Zero(t, reviewCalls, "minimal supervision never calls the supervisor")
}

func TestExecutorHonorsInvokeTimeout(t *testing.T) {
	t.Parallel()

	slow := InvokerFunc(func(ctx context.Context, agent types.Agent, subtask types.SubTask) (*types.TaskResult, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return &types.TaskResult{Success: true}, nil
		}
	})

	registry := NewAgentRegistry(nil)
	balancer := NewLoadBalancer(registry, nil)
	cfg := config.ExecutorConfig{InvokeTimeout: 20 * time.Millisecond}
	executor := NewExecutor(registry, balancer, slow, supervisor.NewScripted(nil), nil, cfg, config.ReviewAdvisory, nil)
	require.NoError(t, registry.Register(newAgent("research-1", types.RoleResearch)))

	assignments, _ := balancer.Assign([]types.SubTask{subtaskFor(types.RoleResearch, 0)})
	results, err := executor.ExecuteAll(context.Background(), "task-1", assignments, types.SupervisionNone)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, 1, registry.AvailableCount(), "agent is released even after a timeout")
}
