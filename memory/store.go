package memory

import (
	"context"
	"time"

	"github.com/BaSui01/swarmflow/types"
)

// ExecutionRecord captures one agent execution for the history of a task.
type ExecutionRecord struct {
	// TaskID is the parent task of the execution.
	TaskID string `json:"task_id"`
	// SubTaskID is the executed subtask.
	SubTaskID string `json:"subtask_id"`
	// AgentID is the agent that ran the subtask.
	AgentID string `json:"agent_id"`
	// Role is the role the agent acted in.
	Role types.AgentRole `json:"role"`
	// Success reports the outcome.
	Success bool `json:"success"`
	// RecordedAt is when the execution was stored.
	RecordedAt time.Time `json:"recorded_at"`
}

// SharedContext is a piece of context shared across agents.
type SharedContext struct {
	// Key identifies the shared context entry.
	Key string `json:"key"`
	// Content is the shared payload.
	Content string `json:"content"`
	// SourceAgentID is the agent that produced the context, if any.
	SourceAgentID string `json:"source_agent_id,omitempty"`
	// UpdatedAt is when the entry was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists coordination state for the engine. The coordinator
// treats it as an external collaborator: write failures are logged, never
// fatal to a pipeline.
type Store interface {
	// StoreTaskContext persists the submitted task.
	StoreTaskContext(ctx context.Context, task types.Task) error
	// StoreExecution appends one execution record to the task's history.
	StoreExecution(ctx context.Context, record ExecutionRecord) error
	// StoreAggregatedResult persists the final result of a task.
	StoreAggregatedResult(ctx context.Context, result *types.AggregatedResult) error
	// ShareContext publishes a shared context entry.
	ShareContext(ctx context.Context, shared SharedContext) error

	// TaskContext reads back a stored task. Returns ErrNotFound when absent.
	TaskContext(ctx context.Context, taskID string) (*types.Task, error)
	// Executions reads back the execution history of a task in write order.
	Executions(ctx context.Context, taskID string) ([]ExecutionRecord, error)
	// AggregatedResult reads back a stored result. Returns ErrNotFound when absent.
	AggregatedResult(ctx context.Context, taskID string) (*types.AggregatedResult, error)
	// SharedContextByKey reads back a shared entry. Returns ErrNotFound when absent.
	SharedContextByKey(ctx context.Context, key string) (*SharedContext, error)

	// Close releases store resources.
	Close() error
}
