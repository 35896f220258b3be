package coordinator

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// AgentRegistry tracks known worker agents and owns every status
// mutation. Balancer, executor, and recovery manager all go through the
// registry mutex, so busy/failed transitions are never lost under
// concurrent task execution.
type AgentRegistry struct {
	// agents maps agent IDs to the canonical agent records.
	agents map[string]*types.Agent
	// order preserves registration order for stable tie-breaks.
	order []string
	// mu protects all fields.
	mu sync.RWMutex

	logger *zap.Logger
}

// NewAgentRegistry creates an empty registry.
func NewAgentRegistry(logger *zap.Logger) *AgentRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentRegistry{
		agents: make(map[string]*types.Agent),
		logger: logger.With(zap.String("component", "agent_registry")),
	}
}

// Register adds an agent to the registry. Duplicate IDs are rejected
// with a DUPLICATE_AGENT configuration error; registration never
// overwrites an existing agent.
func (r *AgentRegistry) Register(agent types.Agent) error {
	if agent.ID == "" {
		return types.NewError(types.ErrInvalidConfiguration, "agent id is required")
	}
	if !agent.Role.Valid() {
		return types.NewError(types.ErrInvalidConfiguration, "unknown agent role: "+string(agent.Role))
	}
	if agent.Status == "" {
		agent.Status = types.AgentAvailable
	}
	if !agent.Status.Valid() {
		return types.NewError(types.ErrInvalidConfiguration, "unknown agent status: "+string(agent.Status))
	}
	if agent.RegisteredAt.IsZero() {
		agent.RegisteredAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[agent.ID]; exists {
		return types.NewError(types.ErrDuplicateAgent, "agent already registered: "+agent.ID)
	}

	stored := agent
	r.agents[agent.ID] = &stored
	r.order = append(r.order, agent.ID)

	r.logger.Info("agent registered",
		zap.String("agent_id", agent.ID),
		zap.String("role", string(agent.Role)),
		zap.String("model", agent.Model),
	)
	return nil
}

// Get returns a copy of the agent with the given ID.
func (r *AgentRegistry) Get(agentID string) (types.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[agentID]
	if !ok {
		return types.Agent{}, false
	}
	return *agent, true
}

// FindByRole returns copies of all available agents with the given role,
// in registration order.
func (r *AgentRegistry) FindByRole(role types.AgentRole) []types.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.Agent
	for _, id := range r.order {
		agent := r.agents[id]
		if agent.Role == role && agent.Status == types.AgentAvailable {
			out = append(out, *agent)
		}
	}
	return out
}

// HasAvailable reports whether any available agent has the given role.
func (r *AgentRegistry) HasAvailable(role types.AgentRole) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, agent := range r.agents {
		if agent.Role == role && agent.Status == types.AgentAvailable {
			return true
		}
	}
	return false
}

// All returns copies of every registered agent in registration order.
func (r *AgentRegistry) All() []types.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Agent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.agents[id])
	}
	return out
}

// Available returns copies of every available agent in registration order.
func (r *AgentRegistry) Available() []types.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.Agent
	for _, id := range r.order {
		if r.agents[id].Status == types.AgentAvailable {
			out = append(out, *r.agents[id])
		}
	}
	return out
}

// Count returns the number of registered agents.
func (r *AgentRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// AvailableCount returns the number of available agents.
func (r *AgentRegistry) AvailableCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, agent := range r.agents {
		if agent.Status == types.AgentAvailable {
			count++
		}
	}
	return count
}

// CompareAndSetStatus transitions the agent from one status to another
// atomically. Returns false when the agent is unknown or not currently
// in the expected status.
func (r *AgentRegistry) CompareAndSetStatus(agentID string, from, to types.AgentStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[agentID]
	if !ok || agent.Status != from {
		return false
	}
	agent.Status = to
	return true
}

// SetStatus forces the agent into the given status regardless of its
// current one. Used by the failure recovery manager.
func (r *AgentRegistry) SetStatus(agentID string, status types.AgentStatus) error {
	if !status.Valid() {
		return types.NewError(types.ErrInvalidConfiguration, "unknown agent status: "+string(status))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[agentID]
	if !ok {
		return types.NewError(types.ErrAgentNotFound, "agent not registered: "+agentID)
	}
	agent.Status = status
	return nil
}
