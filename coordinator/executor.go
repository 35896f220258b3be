package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/memory"
	"github.com/BaSui01/swarmflow/supervisor"
	"github.com/BaSui01/swarmflow/types"
)

// AgentInvoker performs the actual work of a single agent on a single
// subtask. Implementations wrap a model call, a local tool, or a test
// double; the executor treats them uniformly.
type AgentInvoker interface {
	Invoke(ctx context.Context, agent types.Agent, subtask types.SubTask) (*types.TaskResult, error)
}

// InvokerFunc adapts a function to the AgentInvoker interface.
type InvokerFunc func(ctx context.Context, agent types.Agent, subtask types.SubTask) (*types.TaskResult, error)

// Invoke implements AgentInvoker.
func (f InvokerFunc) Invoke(ctx context.Context, agent types.Agent, subtask types.SubTask) (*types.TaskResult, error) {
	return f(ctx, agent, subtask)
}

// Executor runs assignments concurrently. Each invocation is rate
// limited, bounded by the configured timeout, and recorded to the memory
// store; the sequence number on each result reflects completion order.
type Executor struct {
	registry   *AgentRegistry
	balancer   *LoadBalancer
	invoker    AgentInvoker
	supervisor supervisor.Supervisor
	store      memory.Store

	limiter *rate.Limiter
	timeout time.Duration
	review  config.ReviewMode

	logger *zap.Logger
}

// NewExecutor wires an executor onto the registry and balancer that own
// agent state.
func NewExecutor(registry *AgentRegistry, balancer *LoadBalancer, invoker AgentInvoker, sup supervisor.Supervisor, store memory.Store, cfg config.ExecutorConfig, review config.ReviewMode, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	burst := 1
	if cfg.RateLimitPerSecond > 0 {
		limit = rate.Limit(cfg.RateLimitPerSecond)
		burst = cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
	}
	return &Executor{
		registry:   registry,
		balancer:   balancer,
		invoker:    invoker,
		supervisor: sup,
		store:      store,
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    cfg.InvokeTimeout,
		review:     review,
		logger:     logger.With(zap.String("component", "executor")),
	}
}

// ExecuteAll runs every assignment concurrently and returns one result
// per assignment. Failed invocations yield failed results rather than
// aborting the batch; the batch errors only when the context is
// cancelled before all assignments finish.
func (e *Executor) ExecuteAll(ctx context.Context, taskID string, assignments []types.TaskAssignment, level types.SupervisionLevel) ([]types.TaskResult, error) {
	results := make([]types.TaskResult, len(assignments))
	var completions atomic.Int64
	var mu sync.Mutex

	group, ctx := errgroup.WithContext(ctx)
	for i, assignment := range assignments {
		i, assignment := i, assignment
		group.Go(func() error {
			result := e.executeOne(ctx, taskID, assignment, level)
			result.CompletionIndex = int(completions.Add(1) - 1)
			mu.Lock()
			results[i] = result
			mu.Unlock()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return results, types.NewError(types.ErrAgentFailed, "execution interrupted").WithCause(err)
	}
	return results, nil
}

// executeOne runs a single assignment end to end: rate limit, invoke
// with timeout, release the agent, record the execution, and apply the
// supervision level.
func (e *Executor) executeOne(ctx context.Context, taskID string, assignment types.TaskAssignment, level types.SupervisionLevel) types.TaskResult {
	defer e.balancer.Release(assignment.AgentID)

	agent, ok := e.registry.Get(assignment.AgentID)
	if !ok {
		return e.failedResult(assignment, types.NewError(types.ErrAgentNotFound, "agent not registered: "+assignment.AgentID), 0)
	}

	started := time.Now()
	if err := e.limiter.Wait(ctx); err != nil {
		return e.failedResult(assignment, types.NewError(types.ErrAgentFailed, "rate limit wait cancelled").WithCause(err), time.Since(started))
	}

	invokeCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		invokeCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	result, err := e.invoker.Invoke(invokeCtx, agent, assignment.SubTask)
	duration := time.Since(started)
	if err != nil {
		e.logger.Warn("agent invocation failed",
			zap.String("agent_id", agent.ID),
			zap.String("subtask_id", assignment.SubTask.ID),
			zap.Error(err),
		)
		failed := e.failedResult(assignment, types.NewError(types.ErrAgentFailed, "agent invocation failed").WithCause(err).WithRetryable(true), duration)
		e.recordExecution(ctx, taskID, failed)
		return failed
	}

	result.SubTaskID = assignment.SubTask.ID
	result.AgentID = agent.ID
	result.Role = agent.Role
	result.Duration = duration

	if level.Valid() && level != types.SupervisionNone {
		e.applySupervision(ctx, taskID, result, level)
	}

	e.recordExecution(ctx, taskID, *result)
	return *result
}

// applySupervision implements the minimal and full supervision levels.
// Minimal logs progress; full additionally routes the result through a
// supervisor review. In gating mode a rejected review marks the result
// unsuccessful, in advisory mode the verdict is attached but the result
// stands.
func (e *Executor) applySupervision(ctx context.Context, taskID string, result *types.TaskResult, level types.SupervisionLevel) {
	e.logger.Info("subtask completed",
		zap.String("task_id", taskID),
		zap.String("subtask_id", result.SubTaskID),
		zap.String("agent_id", result.AgentID),
		zap.Bool("success", result.Success),
		zap.Duration("duration", result.Duration),
	)
	if level != types.SupervisionFull || e.supervisor == nil {
		return
	}

	interim := &types.AggregatedResult{
		TaskID:       taskID,
		Success:      result.Success,
		Results:      []types.TaskResult{*result},
		QualityScore: result.Confidence,
	}
	review, err := e.supervisor.Review(ctx, interim, types.Task{ID: taskID})
	if err != nil {
		e.logger.Warn("supervisor review failed",
			zap.String("subtask_id", result.SubTaskID),
			zap.Error(err),
		)
		return
	}

	result.Review = review
	if e.review == config.ReviewGating && !review.Approved {
		result.Success = false
		if result.Error == "" {
			result.Error = "rejected by supervisor review: " + review.Feedback
		}
	}
}

func (e *Executor) failedResult(assignment types.TaskAssignment, err *types.Error, duration time.Duration) types.TaskResult {
	return types.TaskResult{
		SubTaskID: assignment.SubTask.ID,
		AgentID:   assignment.AgentID,
		Role:      assignment.SubTask.Role,
		Success:   false,
		Error:     err.Error(),
		Duration:  duration,
	}
}

func (e *Executor) recordExecution(ctx context.Context, taskID string, result types.TaskResult) {
	if e.store == nil {
		return
	}
	record := memory.ExecutionRecord{
		TaskID:     taskID,
		SubTaskID:  result.SubTaskID,
		AgentID:    result.AgentID,
		Role:       result.Role,
		Success:    result.Success,
		RecordedAt: time.Now(),
	}
	if err := e.store.StoreExecution(ctx, record); err != nil {
		e.logger.Warn("failed to record execution", zap.Error(err))
	}
}
