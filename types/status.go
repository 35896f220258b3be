package types

import "time"

// CoordinatorState names the coarse state of the coordinator.
type CoordinatorState string

const (
	// CoordinatorIdle means no task is currently executing.
	CoordinatorIdle CoordinatorState = "idle"
	// CoordinatorExecuting means a pipeline is in flight.
	CoordinatorExecuting CoordinatorState = "executing"
	// CoordinatorError means the last invocation failed. The state resets
	// to idle at the start of the next execute call; it is never terminal
	// for the coordinator itself.
	CoordinatorError CoordinatorState = "error"
)

// CoordinatorStatus is the coordinator-wide status, mutated only by the
// coordinator and readable by observers.
type CoordinatorStatus struct {
	// State is the coarse state.
	State CoordinatorState `json:"state"`
	// Reason carries the failure reason when State is error.
	Reason string `json:"reason,omitempty"`
	// ChangedAt is when the state last transitioned.
	ChangedAt time.Time `json:"changed_at"`
}

// PerformanceSnapshot holds rolling counters about coordinator activity.
// It is derived state, recomputed on demand, and never a source of truth.
type PerformanceSnapshot struct {
	// TotalTasks is the number of tasks the coordinator has executed.
	TotalTasks int64 `json:"total_tasks"`
	// SuccessfulTasks is the number of tasks that aggregated successfully.
	SuccessfulTasks int64 `json:"successful_tasks"`
	// SuccessRate is SuccessfulTasks / TotalTasks, 0 when no tasks ran.
	SuccessRate float64 `json:"success_rate"`
	// LastExecution is the wall time of the most recent pipeline.
	LastExecution time.Duration `json:"last_execution_ms"`
	// ActiveAgents is the number of agents currently available.
	ActiveAgents int `json:"active_agents"`
	// RegisteredAgents is the total number of registered agents.
	RegisteredAgents int `json:"registered_agents"`
	// TakenAt is when the snapshot was computed.
	TakenAt time.Time `json:"taken_at"`
}
