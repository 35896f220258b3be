package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/swarmflow/supervisor"
	"github.com/BaSui01/swarmflow/types"
)

func TestCollectorRecords(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	collector := NewCollector("swarmflow", registry, nil)

	collector.RecordTask(true, 120*time.Millisecond)
	collector.RecordTask(false, 80*time.Millisecond)
	collector.RecordAssignment(3, 1)
	collector.RecordAgentFailure()
	collector.RecordConsensus(true)
	collector.RecordConsensus(false)
	collector.UpdateAgentGauges(4, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.tasksTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.tasksTotal.WithLabelValues("failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(collector.subtasksAssigned))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.subtasksDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.agentFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.consensusRounds.WithLabelValues("reached")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.consensusRounds.WithLabelValues("not_reached")))
	assert.Equal(t, 4.0, testutil.ToFloat64(collector.registeredAgents))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.availableAgents))
}

func TestCoordinatorFeedsCollector(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	collector := NewCollector("swarmflow", registry, nil)

	c, err := New(nil, Dependencies{
		Supervisor: supervisor.NewScripted(nil),
		Invoker:    echoInvoker("done", 0.8),
		Metrics:    collector,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	for _, role := range types.AllRoles() {
		require.NoError(t, c.RegisterAgent(newAgent(string(role)+"-1", role)))
	}

	c.ExecuteComplexTask(context.Background(), types.Task{ID: "task-1"})
	require.NoError(t, c.SimulateAgentFailure("research-1"))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.tasksTotal.WithLabelValues("success")))
	assert.Equal(t, float64(len(types.AllRoles())), testutil.ToFloat64(collector.subtasksAssigned))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.agentFailures))
	assert.Equal(t, float64(len(types.AllRoles())), testutil.ToFloat64(collector.registeredAgents))
	assert.Equal(t, float64(len(types.AllRoles())-1), testutil.ToFloat64(collector.availableAgents))
}
