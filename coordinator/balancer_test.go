package coordinator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/swarmflow/types"
)

func subtaskFor(role types.AgentRole, order int) types.SubTask {
	return types.SubTask{
		ID:           fmt.Sprintf("sub-%s-%d", role, order),
		ParentTaskID: "task-1",
		Description:  "unit of work",
		Role:         role,
		Order:        order,
	}
}

func TestBalancerAssignsByRole(t *testing.T) {
	t.Parallel()

	registry := NewAgentRegistry(nil)
	require.NoError(t, registry.Register(newAgent("research-1", types.RoleResearch)))
	require.NoError(t, registry.Register(newAgent("code-1", types.RoleCode)))
	balancer := NewLoadBalancer(registry, nil)

	subtasks := []types.SubTask{
		subtaskFor(types.RoleResearch, 0),
		subtaskFor(types.RoleCode, 1),
	}
	assignments, unassigned := balancer.Assign(subtasks)

	require.Len(t, assignments, 2)
	assert.Empty(t, unassigned)
	assert.Equal(t, "research-1", assignments[0].AgentID)
	assert.Equal(t, "code-1", assignments[1].AgentID)

	// claimed agents are observably busy until released
	agent, _ := registry.Get("research-1")
	assert.Equal(t, types.AgentBusy, agent.Status)

	balancer.Release("research-1")
	agent, _ = registry.Get("research-1")
	assert.Equal(t, types.AgentAvailable, agent.Status)
}

func TestBalancerReportsUnassigned(t *testing.T) {
	t.Parallel()

	registry := NewAgentRegistry(nil)
	require.NoError(t, registry.Register(newAgent("research-1", types.RoleResearch)))
	balancer := NewLoadBalancer(registry, nil)

	subtasks := []types.SubTask{
		subtaskFor(types.RoleResearch, 0),
		subtaskFor(types.RoleValidation, 1),
	}
	assignments, unassigned := balancer.Assign(subtasks)

	require.Len(t, assignments, 1)
	require.Len(t, unassigned, 1)
	assert.Equal(t, types.RoleValidation, unassigned[0].Role)
}

func TestBalancerPrefersLeastLoaded(t *testing.T) {
	t.Parallel()

	registry := NewAgentRegistry(nil)
	require.NoError(t, registry.Register(newAgent("research-1", types.RoleResearch)))
	require.NoError(t, registry.Register(newAgent("research-2", types.RoleResearch)))
	balancer := NewLoadBalancer(registry, nil)

	first, _ := balancer.Assign([]types.SubTask{subtaskFor(types.RoleResearch, 0)})
	require.Len(t, first, 1)
	assert.Equal(t, "research-1", first[0].AgentID, "ties break by registration order")

	// research-1 is busy with outstanding load, so the next assignment
	// must go to research-2
	second, _ := balancer.Assign([]types.SubTask{subtaskFor(types.RoleResearch, 1)})
	require.Len(t, second, 1)
	assert.Equal(t, "research-2", second[0].AgentID)

	balancer.Release("research-1")
	balancer.Release("research-2")

	// with history 1:1 and both available again, registration order wins
	third, _ := balancer.Assign([]types.SubTask{subtaskFor(types.RoleResearch, 2)})
	require.Len(t, third, 1)
	assert.Equal(t, "research-1", third[0].AgentID)
}

func TestBalancerDistributeTasksEvenQueues(t *testing.T) {
	t.Parallel()

	registry := NewAgentRegistry(nil)
	agents := []types.Agent{
		newAgent("a", types.RoleResearch),
		newAgent("b", types.RoleAnalysis),
		newAgent("c", types.RoleCode),
	}
	for _, agent := range agents {
		require.NoError(t, registry.Register(agent))
	}
	balancer := NewLoadBalancer(registry, nil)

	tasks := make([]types.Task, 7)
	for i := range tasks {
		tasks[i] = types.Task{ID: fmt.Sprintf("task-%d", i)}
	}

	queues := balancer.DistributeTasks(tasks, registry.Available())

	total := 0
	min, max := len(tasks), 0
	for _, queue := range queues {
		total += len(queue)
		if len(queue) < min {
			min = len(queue)
		}
		if len(queue) > max {
			max = len(queue)
		}
	}
	assert.Equal(t, len(tasks), total)
	assert.LessOrEqual(t, max-min, 1, "queue lengths must differ by at most one")
}

func TestBalancerDistributeTasksNoAgents(t *testing.T) {
	t.Parallel()

	registry := NewAgentRegistry(nil)
	balancer := NewLoadBalancer(registry, nil)

	queues := balancer.DistributeTasks([]types.Task{{ID: "task-1"}}, nil)
	assert.Empty(t, queues)
}

func TestBalancerLoadDistribution(t *testing.T) {
	t.Parallel()

	registry := NewAgentRegistry(nil)
	require.NoError(t, registry.Register(newAgent("research-1", types.RoleResearch)))
	require.NoError(t, registry.Register(newAgent("code-1", types.RoleCode)))
	balancer := NewLoadBalancer(registry, nil)

	distribution := balancer.LoadDistribution()
	assert.Equal(t, map[string]int{"research-1": 0, "code-1": 0}, distribution)

	balancer.Assign([]types.SubTask{subtaskFor(types.RoleResearch, 0)})
	distribution = balancer.LoadDistribution()
	assert.Equal(t, 1, distribution["research-1"])
	assert.Equal(t, 0, distribution["code-1"])

	balancer.Release("research-1")
	distribution = balancer.LoadDistribution()
	assert.Equal(t, 0, distribution["research-1"])
}

func TestAssignPrefersCapabilityMatch(t *testing.T) {
	t.Parallel()

	registry := NewAgentRegistry(nil)
	require.NoError(t, registry.Register(newAgent("code-1", types.RoleCode)))
	specialist := newAgent("code-2", types.RoleCode)
	specialist.Capabilities = []string{"python", "profiling"}
	require.NoError(t, registry.Register(specialist))
	balancer := NewLoadBalancer(registry, nil)

	subtask := subtaskFor(types.RoleCode, 0)
	subtask.RequiredCapabilities = []string{"python"}

	assignments, unassigned := balancer.Assign([]types.SubTask{subtask})
	require.Len(t, assignments, 1)
	assert.Empty(t, unassigned)
	assert.Equal(t, "code-2", assignments[0].AgentID,
		"the capability-carrying agent wins over the registration-order tie-break")
}

func TestAssignFallsBackWhenNoCapabilityMatch(t *testing.T) {
	t.Parallel()

	registry := NewAgentRegistry(nil)
	require.NoError(t, registry.Register(newAgent("code-1", types.RoleCode)))
	balancer := NewLoadBalancer(registry, nil)

	subtask := subtaskFor(types.RoleCode, 0)
	subtask.RequiredCapabilities = []string{"fortran"}

	assignments, unassigned := balancer.Assign([]types.SubTask{subtask})
	require.Len(t, assignments, 1)
	assert.Empty(t, unassigned)
	assert.Equal(t, "code-1", assignments[0].AgentID,
		"capability tags are a preference, not a hard constraint")
}

func TestAssignAllClaimsWholeRole(t *testing.T) {
	t.Parallel()

	registry := NewAgentRegistry(nil)
	for i := 1; i <= 3; i++ {
		require.NoError(t, registry.Register(newAgent(fmt.Sprintf("research-%d", i), types.RoleResearch)))
	}
	require.NoError(t, registry.Register(newAgent("code-1", types.RoleCode)))
	balancer := NewLoadBalancer(registry, nil)

	assignments := balancer.AssignAll(subtaskFor(types.RoleResearch, 0))
	require.Len(t, assignments, 3)

	claimed := make(map[string]bool, len(assignments))
	for _, assignment := range assignments {
		claimed[assignment.AgentID] = true
		agent, ok := registry.Get(assignment.AgentID)
		require.True(t, ok)
		assert.Equal(t, types.AgentBusy, agent.Status)
	}
	assert.Len(t, claimed, 3, "each participant is a distinct agent")

	bystander, ok := registry.Get("code-1")
	require.True(t, ok)
	assert.Equal(t, types.AgentAvailable, bystander.Status, "other roles stay untouched")

	assert.Empty(t, balancer.AssignAll(subtaskFor(types.RoleResearch, 1)),
		"a busy pool yields no participants")
}
