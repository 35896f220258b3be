package types

import "time"

// TaskResult is the per-agent outcome of one assignment.
type TaskResult struct {
	// SubTaskID is the subtask this result answers.
	SubTaskID string `json:"subtask_id"`
	// AgentID is the agent that produced the result.
	AgentID string `json:"agent_id"`
	// Role is the role the agent acted in.
	Role AgentRole `json:"role"`
	// Success reports whether the assignment completed without error.
	Success bool `json:"success"`
	// Output is the free-form result payload.
	Output string `json:"output"`
	// Confidence is the agent's confidence in [0,1].
	Confidence float64 `json:"confidence"`
	// Error carries the failure reason when Success is false.
	Error string `json:"error,omitempty"`
	// Duration is how long the assignment took.
	Duration time.Duration `json:"duration_ms"`
	// CompletionIndex is the arrival position among the results of one
	// request. Aggregation must not depend on it; consensus tie-breaks do.
	CompletionIndex int `json:"completion_index"`
	// Review is the supervisor's per-result verdict under full supervision.
	Review *ReviewResult `json:"review,omitempty"`
}

// ReviewResult is the frontier supervisor's feedback on an aggregated result.
type ReviewResult struct {
	// Feedback is the supervisor's free-form commentary.
	Feedback string `json:"feedback"`
	// Approved reports whether the supervisor accepted the result.
	Approved bool `json:"approved"`
	// QualityScore is the supervisor's quality estimate in [0,1].
	QualityScore float64 `json:"quality_score"`
}

// AggregatedResult combines all TaskResults for one Task. Aggregation is
// keyed by role, not by arrival position, so it is invariant to the order
// in which concurrent subtasks complete.
type AggregatedResult struct {
	// TaskID is the task these results belong to.
	TaskID string `json:"task_id"`
	// Success is true only when every constituent result succeeded.
	Success bool `json:"success"`
	// Results holds every constituent result in subtask order.
	Results []TaskResult `json:"results"`
	// ByRole slots the effective result per role.
	ByRole map[AgentRole]*TaskResult `json:"by_role"`
	// QualityScore is the mean of constituent confidences.
	QualityScore float64 `json:"quality_score"`
	// UnassignedSubtasks counts subtasks the balancer could not place.
	UnassignedSubtasks int `json:"unassigned_subtasks,omitempty"`
	// DegradedMode marks reduced-confidence operation.
	DegradedMode bool `json:"degraded_mode,omitempty"`
	// Review is the supervisor's feedback when supervision was requested.
	Review *ReviewResult `json:"review,omitempty"`
	// Err carries the pipeline error when the request failed before or
	// during execution. It is never a substitute for per-result errors.
	Err *Error `json:"error,omitempty"`
	// Duration is the wall time of the whole pipeline.
	Duration time.Duration `json:"duration_ms"`
}

// QualityFromResults computes the mean confidence of the given results.
// Returns 0 for an empty slice.
func QualityFromResults(results []TaskResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Confidence
	}
	return sum / float64(len(results))
}

// ConsensusResult is the outcome of a consensus task.
type ConsensusResult struct {
	// TaskID is the consensus task this result answers.
	TaskID string `json:"task_id"`
	// Reached is true when the agreement level met the threshold.
	Reached bool `json:"reached"`
	// Level is the fraction of agents agreeing with the plurality answer.
	Level float64 `json:"level"`
	// Answer is the plurality answer; ties break to the earliest responder.
	Answer string `json:"answer"`
	// Participants is the number of agents that produced an answer.
	Participants int `json:"participants"`
}

// ConflictResolution is the outcome of supervisor-mediated arbitration.
type ConflictResolution struct {
	// TaskID is the conflict task this resolution answers.
	TaskID string `json:"task_id"`
	// Resolution is the arbitrated value.
	Resolution string `json:"resolution"`
	// Confidence is the supervisor's confidence in [0,1].
	Confidence float64 `json:"confidence"`
	// SupervisorInvolved is always true: conflicts are never resolved
	// purely locally.
	SupervisorInvolved bool `json:"supervisor_involved"`
}
