package supervisor

import (
	"context"

	"github.com/BaSui01/swarmflow/types"
)

// Supervisor is the frontier supervisor capability consumed by the
// coordinator: a higher-capability reviewer and arbitrator that
// decomposes tasks, reviews aggregated results, and resolves conflicts.
// Implementations typically wrap a frontier-class model endpoint; the
// engine only depends on this contract.
type Supervisor interface {
	// Decompose splits a composite task into an ordered, non-empty set of
	// subtasks whose combined scope covers the task description.
	Decompose(ctx context.Context, task types.Task) ([]types.SubTask, error)

	// Review inspects an aggregated result and returns feedback, an
	// approval flag, and a quality score.
	Review(ctx context.Context, result *types.AggregatedResult, task types.Task) (*types.ReviewResult, error)

	// ResolveConflict arbitrates a disagreement between agents.
	ResolveConflict(ctx context.Context, task types.ConflictTask) (*types.ConflictResolution, error)
}
