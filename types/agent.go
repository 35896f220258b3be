package types

import "time"

// AgentRole identifies the specialization of a worker agent.
type AgentRole string

const (
	// RoleResearch gathers background information for a task.
	RoleResearch AgentRole = "research"
	// RoleAnalysis interprets gathered material and draws conclusions.
	RoleAnalysis AgentRole = "analysis"
	// RoleCode produces code artifacts.
	RoleCode AgentRole = "code"
	// RoleValidation checks the outputs of the other roles.
	RoleValidation AgentRole = "validation"
)

// Valid returns true if the role is a known value.
func (r AgentRole) Valid() bool {
	switch r {
	case RoleResearch, RoleAnalysis, RoleCode, RoleValidation:
		return true
	default:
		return false
	}
}

// AllRoles lists every known agent role in a stable order.
func AllRoles() []AgentRole {
	return []AgentRole{RoleResearch, RoleAnalysis, RoleCode, RoleValidation}
}

// AgentStatus represents the availability of a worker agent.
type AgentStatus string

const (
	// AgentAvailable means the agent can accept a new assignment.
	AgentAvailable AgentStatus = "available"
	// AgentBusy means the agent is executing an assignment.
	AgentBusy AgentStatus = "busy"
	// AgentFailed means the agent has been marked failed and must not
	// receive assignments until explicitly restored.
	AgentFailed AgentStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentAvailable, AgentBusy, AgentFailed:
		return true
	default:
		return false
	}
}

// Agent describes a specialized worker agent. The registry owns the
// canonical copy; Status is mutated only through the registry so that
// concurrent balancer and recovery updates stay serialized.
type Agent struct {
	// ID is the unique identifier for this agent.
	ID string `json:"id"`
	// Role is the agent's specialization.
	Role AgentRole `json:"role"`
	// Model is the backing model identifier.
	Model string `json:"model"`
	// Capabilities are free-form capability tags.
	Capabilities []string `json:"capabilities,omitempty"`
	// Status is the current availability of the agent.
	Status AgentStatus `json:"status"`
	// RegisteredAt is when the agent was added to the registry.
	RegisteredAt time.Time `json:"registered_at"`
}

// HasCapability reports whether the agent carries the given tag.
func (a *Agent) HasCapability(tag string) bool {
	for _, c := range a.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}
