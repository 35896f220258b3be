package supervisor

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// DecomposeFunc overrides how a ScriptedSupervisor splits a task.
type DecomposeFunc func(ctx context.Context, task types.Task) ([]types.SubTask, error)

// ReviewFunc overrides how a ScriptedSupervisor reviews a result.
type ReviewFunc func(ctx context.Context, result *types.AggregatedResult, task types.Task) (*types.ReviewResult, error)

// ResolveFunc overrides how a ScriptedSupervisor arbitrates a conflict.
type ResolveFunc func(ctx context.Context, task types.ConflictTask) (*types.ConflictResolution, error)

// ScriptedSupervisor is a deterministic Supervisor implementation. Its
// default behavior decomposes a task into one subtask per agent role,
// approves reviews at the aggregated quality score, and arbitrates
// conflicts by plurality of positions. Each behavior can be replaced via
// an option, which makes it the standard test double and the fallback
// when no frontier endpoint is configured.
type ScriptedSupervisor struct {
	decompose DecomposeFunc
	review    ReviewFunc
	resolve   ResolveFunc

	logger *zap.Logger
}

// Option configures a ScriptedSupervisor.
type Option func(*ScriptedSupervisor)

// WithDecompose replaces the default decomposition behavior.
func WithDecompose(fn DecomposeFunc) Option {
	return func(s *ScriptedSupervisor) { s.decompose = fn }
}

// WithReview replaces the default review behavior.
func WithReview(fn ReviewFunc) Option {
	return func(s *ScriptedSupervisor) { s.review = fn }
}

// WithResolve replaces the default conflict arbitration behavior.
func WithResolve(fn ResolveFunc) Option {
	return func(s *ScriptedSupervisor) { s.resolve = fn }
}

// NewScripted creates a ScriptedSupervisor.
func NewScripted(logger *zap.Logger, opts ...Option) *ScriptedSupervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ScriptedSupervisor{
		logger: logger.With(zap.String("component", "scripted_supervisor")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decompose splits the task into one subtask per agent role, in the
// stable role order. The coordinator never interprets task content
// itself; this default mirrors the role slots of the aggregated result.
func (s *ScriptedSupervisor) Decompose(ctx context.Context, task types.Task) ([]types.SubTask, error) {
	if s.decompose != nil {
		return s.decompose(ctx, task)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roles := types.AllRoles()
	subtasks := make([]types.SubTask, 0, len(roles))
	for i, role := range roles {
		subtasks = append(subtasks, types.SubTask{
			ID:           uuid.New().String(),
			ParentTaskID: task.ID,
			Description:  fmt.Sprintf("%s: %s", role, task.Description),
			Role:         role,
			Order:        i,
		})
	}

	s.logger.Debug("task decomposed",
		zap.String("task_id", task.ID),
		zap.Int("subtasks", len(subtasks)),
	)
	return subtasks, nil
}

// Review approves the result when every constituent succeeded and echoes
// the aggregated quality score.
func (s *ScriptedSupervisor) Review(ctx context.Context, result *types.AggregatedResult, task types.Task) (*types.ReviewResult, error) {
	if s.review != nil {
		return s.review(ctx, result, task)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	feedback := "all subtask results consistent with task scope"
	if !result.Success {
		feedback = "one or more subtask results failed"
	}
	return &types.ReviewResult{
		Feedback:     feedback,
		Approved:     result.Success,
		QualityScore: result.QualityScore,
	}, nil
}

// ResolveConflict picks the plurality position; ties break to the
// lexicographically smallest agent ID so arbitration stays deterministic.
func (s *ScriptedSupervisor) ResolveConflict(ctx context.Context, task types.ConflictTask) (*types.ConflictResolution, error) {
	if s.resolve != nil {
		return s.resolve(ctx, task)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(task.Positions) == 0 {
		return nil, types.NewError(types.ErrSupervisorError, "conflict task has no positions")
	}

	counts := make(map[string]int)
	for _, position := range task.Positions {
		counts[position]++
	}

	agentIDs := make([]string, 0, len(task.Positions))
	for id := range task.Positions {
		agentIDs = append(agentIDs, id)
	}
	sort.Strings(agentIDs)

	var winner string
	best := 0
	for _, id := range agentIDs {
		position := task.Positions[id]
		if counts[position] > best {
			best = counts[position]
			winner = position
		}
	}

	confidence := float64(best) / float64(len(task.Positions))

	s.logger.Debug("conflict arbitrated",
		zap.String("task_id", task.ID),
		zap.Int("positions", len(task.Positions)),
		zap.Float64("confidence", confidence),
	)

	return &types.ConflictResolution{
		TaskID:             task.ID,
		Resolution:         winner,
		Confidence:         confidence,
		SupervisorInvolved: true,
	}, nil
}

// Ensure ScriptedSupervisor implements Supervisor
var _ Supervisor = (*ScriptedSupervisor)(nil)
