package types

import "time"

// SupervisionLevel controls how much supervisor review a result receives
// before it is accepted.
type SupervisionLevel string

const (
	// SupervisionNone performs no extra review.
	SupervisionNone SupervisionLevel = "none"
	// SupervisionMinimal is the default: no additional supervisor call.
	SupervisionMinimal SupervisionLevel = "minimal"
	// SupervisionFull asks the frontier supervisor to review each result.
	SupervisionFull SupervisionLevel = "full"
)

// Valid returns true if the level is a known value.
func (l SupervisionLevel) Valid() bool {
	switch l {
	case SupervisionNone, SupervisionMinimal, SupervisionFull:
		return true
	default:
		return false
	}
}

// TaskPriority orders tasks relative to each other.
type TaskPriority int

const (
	PriorityLow    TaskPriority = 0
	PriorityNormal TaskPriority = 1
	PriorityHigh   TaskPriority = 2
)

// Task is a composite unit of work submitted to the coordinator.
// Tasks are immutable once submitted.
type Task struct {
	// ID is the unique task identifier.
	ID string `json:"id"`
	// Description is the human-readable statement of the work.
	Description string `json:"description"`
	// Priority orders this task relative to others.
	Priority TaskPriority `json:"priority"`
	// RequiredCapabilities are capability tags the task needs.
	RequiredCapabilities []string `json:"required_capabilities,omitempty"`
	// Supervision is the review level applied to subtask results.
	Supervision SupervisionLevel `json:"supervision"`
	// Complexity is the estimated complexity in arbitrary units.
	Complexity int `json:"complexity"`
	// SubmittedAt is when the task entered the coordinator.
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubTask is an indivisible decomposition unit of a Task, produced by the
// frontier supervisor and consumed by the load balancer.
type SubTask struct {
	// ID is the unique subtask identifier.
	ID string `json:"id"`
	// ParentTaskID references the task this subtask was derived from.
	ParentTaskID string `json:"parent_task_id"`
	// Description is the scope of this unit of work.
	Description string `json:"description"`
	// Role is the agent role required to execute this subtask.
	Role AgentRole `json:"role"`
	// RequiredCapabilities are capability tags the executing agent
	// should carry. A capability match is preferred, not required.
	RequiredCapabilities []string `json:"required_capabilities,omitempty"`
	// Order is the position within the decomposition.
	Order int `json:"order"`
}

// TaskAssignment pairs a subtask with the agent chosen to execute it.
// The agent must be available at assignment time; it is observably busy
// for the duration of execution.
type TaskAssignment struct {
	// SubTask is the unit of work being assigned.
	SubTask SubTask `json:"subtask"`
	// AgentID is the agent executing the subtask.
	AgentID string `json:"agent_id"`
	// AssignedAt is when the balancer created the pairing.
	AssignedAt time.Time `json:"assigned_at"`
}

// ConsensusTask asks the same question of every agent matching the
// requested roles and pools their answers.
type ConsensusTask struct {
	// ID is the unique task identifier.
	ID string `json:"id"`
	// Question is the question posed to every participating agent.
	Question string `json:"question"`
	// Roles selects which agent roles participate. Empty means all roles.
	Roles []AgentRole `json:"roles,omitempty"`
	// Threshold is the minimum agreement fraction in [0,1]. Nil selects
	// the coordinator's configured default; an explicit zero is honored
	// as given.
	Threshold *float64 `json:"threshold,omitempty"`
}

// Threshold returns a pointer to v for use as ConsensusTask.Threshold.
func Threshold(v float64) *float64 { return &v }

// ConflictTask describes a disagreement between agents that must be
// arbitrated by the frontier supervisor.
type ConflictTask struct {
	// ID is the unique task identifier.
	ID string `json:"id"`
	// Description states the disputed question.
	Description string `json:"description"`
	// Positions holds the conflicting answers keyed by agent ID.
	Positions map[string]string `json:"positions"`
}
