package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/swarmflow/memory"
	"github.com/BaSui01/swarmflow/types"
)

func constStep(name string) Step {
	return NewFuncStep(name, func(ctx context.Context, input any) (any, error) {
		return name, nil
	})
}

func TestGraphValidateDetectsCycle(t *testing.T) {
	t.Parallel()

	graph := NewGraph("cyclic", "").
		AddStep(constStep("a")).
		AddStep(constStep("b")).
		AddStep(constStep("c")).
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", "a").
		SetEntry("a")

	err := graph.Validate()
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrGraphCycle))
}

func TestGraphValidateStructure(t *testing.T) {
	t.Parallel()

	t.Run("unknown entry", func(t *testing.T) {
		graph := NewGraph("g", "").AddStep(constStep("a")).SetEntry("ghost")
		assert.True(t, types.IsErrorCode(graph.Validate(), types.ErrWorkflowInvalid))
	})

	t.Run("edge to unknown node", func(t *testing.T) {
		graph := NewGraph("g", "").AddStep(constStep("a")).AddEdge("a", "ghost").SetEntry("a")
		assert.True(t, types.IsErrorCode(graph.Validate(), types.ErrWorkflowInvalid))
	})

	t.Run("no nodes", func(t *testing.T) {
		graph := NewGraph("g", "")
		assert.True(t, types.IsErrorCode(graph.Validate(), types.ErrWorkflowInvalid))
	})

	t.Run("node without step", func(t *testing.T) {
		graph := NewGraph("g", "").AddNode(&Node{ID: "a"}).SetEntry("a")
		assert.True(t, types.IsErrorCode(graph.Validate(), types.ErrWorkflowInvalid))
	})

	t.Run("self loop", func(t *testing.T) {
		graph := NewGraph("g", "").AddStep(constStep("a")).AddEdge("a", "a").SetEntry("a")
		assert.True(t, types.IsErrorCode(graph.Validate(), types.ErrGraphCycle))
	})
}

func TestGraphExecutesDiamondInDependencyOrder(t *testing.T) {
	t.Parallel()

	store := memory.NewInMemoryStore(nil)
	t.Cleanup(func() { store.Close() })
	engine := NewGraphEngine(store, nil)

	// fetch fans out to two analyses that join in a merge node
	var merged any
	graph := NewGraph("diamond", "").
		AddStep(constStep("fetch")).
		AddStep(NewFuncStep("trend", func(ctx context.Context, input any) (any, error) {
			assert.Equal(t, "fetch", input, "single-predecessor node receives the predecessor output")
			return "trend", nil
		})).
		AddStep(NewFuncStep("risk", func(ctx context.Context, input any) (any, error) {
			return "risk", nil
		})).
		AddStep(NewFuncStep("merge", func(ctx context.Context, input any) (any, error) {
			merged = input
			return "merged", nil
		})).
		AddEdge("fetch", "trend").
		AddEdge("fetch", "risk").
		AddEdge("trend", "merge").
		AddEdge("risk", "merge").
		SetEntry("fetch")

	result, err := engine.ExecuteGraph(context.Background(), graph, "seed")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"fetch": "fetch",
		"trend": "trend",
		"risk":  "risk",
		"merge": "merged",
	}, result.Outputs)

	// the join node sees both predecessor outputs keyed by node ID
	assert.Equal(t, map[string]any{"trend": "trend", "risk": "risk"}, merged)

	records, err := store.Executions(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestGraphNodeFailureAbortsRun(t *testing.T) {
	t.Parallel()

	engine := NewGraphEngine(nil, nil)
	downstreamRan := false

	graph := NewGraph("failing", "").
		AddStep(constStep("ok")).
		AddStep(NewFuncStep("bad", func(ctx context.Context, input any) (any, error) {
			return nil, errors.New("node exploded")
		})).
		AddStep(NewFuncStep("downstream", func(ctx context.Context, input any) (any, error) {
			downstreamRan = true
			return input, nil
		})).
		AddEdge("ok", "bad").
		AddEdge("bad", "downstream").
		SetEntry("ok")

	_, err := engine.ExecuteGraph(context.Background(), graph, nil)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrWorkflowInvalid))
	assert.Contains(t, err.Error(), "bad")
	assert.False(t, downstreamRan)
}

func TestGraphSkipsUnreachableNodes(t *testing.T) {
	t.Parallel()

	engine := NewGraphEngine(nil, nil)
	orphanRan := false

	graph := NewGraph("partial", "").
		AddStep(constStep("entry")).
		AddStep(NewFuncStep("orphan", func(ctx context.Context, input any) (any, error) {
			orphanRan = true
			return input, nil
		})).
		SetEntry("entry")

	result, err := engine.ExecuteGraph(context.Background(), graph, nil)
	require.NoError(t, err)
	assert.False(t, orphanRan, "nodes unreachable from the entry must not run")
	assert.NotContains(t, result.Outputs, "orphan")
}
