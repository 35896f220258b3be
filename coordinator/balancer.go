package coordinator

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// LoadBalancer assigns subtasks to agents by role and current load.
// It marks agents busy through the registry at assignment time, so an
// agent can never be double-assigned by concurrent callers.
type LoadBalancer struct {
	registry *AgentRegistry

	// load counts outstanding assignments per agent, including work the
	// agent picked up across earlier tasks that has not completed yet.
	load map[string]int
	mu   sync.Mutex

	logger *zap.Logger
}

// NewLoadBalancer creates a balancer backed by the given registry.
func NewLoadBalancer(registry *AgentRegistry, logger *zap.Logger) *LoadBalancer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoadBalancer{
		registry: registry,
		load:     make(map[string]int),
		logger:   logger.With(zap.String("component", "load_balancer")),
	}
}

// Assign matches each subtask to the least-loaded available agent of the
// same role. Ties break by registration order. Subtasks whose role has
// no available agent are returned as unassigned rather than failing the
// whole batch; chosen agents are transitioned to busy.
func (b *LoadBalancer) Assign(subtasks []types.SubTask) ([]types.TaskAssignment, []types.SubTask) {
	var (
		assignments []types.TaskAssignment
		unassigned  []types.SubTask
	)

	for _, subtask := range subtasks {
		agent, ok := b.claimAgent(subtask.Role, subtask.RequiredCapabilities)
		if !ok {
			b.logger.Warn("no available agent for subtask",
				zap.String("subtask_id", subtask.ID),
				zap.String("role", string(subtask.Role)),
			)
			unassigned = append(unassigned, subtask)
			continue
		}
		assignments = append(assignments, types.TaskAssignment{
			SubTask:    subtask,
			AgentID:    agent.ID,
			AssignedAt: time.Now(),
		})
	}
	return assignments, unassigned
}

// claimAgent picks the least-loaded available agent for the role and
// flips it to busy. Agents carrying every requested capability tag are
// preferred; when none does, any agent of the role will do. The
// compare-and-set retry guards against another caller claiming the same
// agent between snapshot and claim.
func (b *LoadBalancer) claimAgent(role types.AgentRole, capabilities []string) (types.Agent, bool) {
	for {
		candidates := b.registry.FindByRole(role)
		if len(candidates) == 0 {
			return types.Agent{}, false
		}
		if matching := filterByCapabilities(candidates, capabilities); len(matching) > 0 {
			candidates = matching
		}

		b.mu.Lock()
		best := candidates[0]
		for _, candidate := range candidates[1:] {
			if b.load[candidate.ID] < b.load[best.ID] {
				best = candidate
			}
		}
		b.mu.Unlock()

		if !b.registry.CompareAndSetStatus(best.ID, types.AgentAvailable, types.AgentBusy) {
			continue
		}
		b.mu.Lock()
		b.load[best.ID]++
		b.mu.Unlock()
		return best, true
	}
}

// filterByCapabilities keeps agents carrying every requested tag.
func filterByCapabilities(agents []types.Agent, capabilities []string) []types.Agent {
	if len(capabilities) == 0 {
		return agents
	}
	var matching []types.Agent
	for _, agent := range agents {
		carriesAll := true
		for _, tag := range capabilities {
			if !agent.HasCapability(tag) {
				carriesAll = false
				break
			}
		}
		if carriesAll {
			matching = append(matching, agent)
		}
	}
	return matching
}

// AssignAll claims every available agent of the subtask's role and
// returns one assignment per claimed agent, all sharing the subtask.
// Used when the same question must reach the whole pool for a role
// rather than a single executor.
func (b *LoadBalancer) AssignAll(subtask types.SubTask) []types.TaskAssignment {
	var assignments []types.TaskAssignment
	for _, agent := range b.registry.FindByRole(subtask.Role) {
		if !b.registry.CompareAndSetStatus(agent.ID, types.AgentAvailable, types.AgentBusy) {
			continue
		}
		b.mu.Lock()
		b.load[agent.ID]++
		b.mu.Unlock()
		assignments = append(assignments, types.TaskAssignment{
			SubTask:    subtask,
			AgentID:    agent.ID,
			AssignedAt: time.Now(),
		})
	}
	return assignments
}

// Release records completion of an assignment and returns the agent to
// the available pool unless it failed mid-flight.
func (b *LoadBalancer) Release(agentID string) {
	b.mu.Lock()
	if b.load[agentID] > 0 {
		b.load[agentID]--
	}
	b.mu.Unlock()

	b.registry.CompareAndSetStatus(agentID, types.AgentBusy, types.AgentAvailable)
}

// DistributeTasks spreads whole tasks across the given agents so queue
// lengths differ by at most one. Agents arrive in registration order,
// which keeps the distribution deterministic for equal loads.
func (b *LoadBalancer) DistributeTasks(tasks []types.Task, agents []types.Agent) map[string][]types.Task {
	queues := make(map[string][]types.Task, len(agents))
	if len(agents) == 0 {
		return queues
	}
	for _, agent := range agents {
		queues[agent.ID] = nil
	}

	for _, task := range tasks {
		best := agents[0].ID
		for _, agent := range agents[1:] {
			if len(queues[agent.ID]) < len(queues[best]) {
				best = agent.ID
			}
		}
		queues[best] = append(queues[best], task)
	}
	return queues
}

// LoadDistribution returns a snapshot of outstanding assignments per
// agent, keyed by agent ID. Agents with no outstanding work report zero.
func (b *LoadBalancer) LoadDistribution() map[string]int {
	distribution := make(map[string]int)
	for _, agent := range b.registry.All() {
		distribution[agent.ID] = 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for agentID, count := range b.load {
		distribution[agentID] = count
	}
	return distribution
}
