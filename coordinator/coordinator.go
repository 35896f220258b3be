package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/memory"
	"github.com/BaSui01/swarmflow/supervisor"
	"github.com/BaSui01/swarmflow/types"
)

// Coordinator composes the registry, balancer, executor, consensus
// engine, and recovery manager into the full coordination engine. All
// public methods are safe for concurrent use.
type Coordinator struct {
	cfg *config.Config

	registry   *AgentRegistry
	balancer   *LoadBalancer
	executor   *Executor
	consensus  *ConsensusEngine
	recovery   *FailureRecoveryManager
	supervisor supervisor.Supervisor
	store      memory.Store

	events  *eventStream
	perf    *performanceTracker
	metrics *Collector
	tracer  trace.Tracer

	status   types.CoordinatorStatus
	statusMu sync.RWMutex

	logger *zap.Logger
}

// Dependencies carries the external collaborators of a Coordinator.
// Supervisor and Invoker are required; Store defaults to an in-memory
// store and Metrics is optional.
type Dependencies struct {
	Supervisor supervisor.Supervisor
	Invoker    AgentInvoker
	Store      memory.Store
	Metrics    *Collector
	Logger     *zap.Logger
}

// New creates a coordinator from validated configuration and wired
// dependencies.
func New(cfg *config.Config, deps Dependencies) (*Coordinator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "invalid coordinator configuration").WithCause(err)
	}
	if deps.Supervisor == nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "supervisor is required")
	}
	if deps.Invoker == nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "agent invoker is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := deps.Store
	if store == nil {
		store = memory.NewInMemoryStore(logger)
	}

	registry := NewAgentRegistry(logger)
	balancer := NewLoadBalancer(registry, logger)

	c := &Coordinator{
		cfg:        cfg,
		registry:   registry,
		balancer:   balancer,
		executor:   NewExecutor(registry, balancer, deps.Invoker, deps.Supervisor, store, cfg.Executor, cfg.Coordinator.ReviewMode, logger),
		consensus:  NewConsensusEngine(logger),
		recovery:   NewFailureRecoveryManager(registry, cfg.Recovery.DegradationFactor, logger),
		supervisor: deps.Supervisor,
		store:      store,
		events:     newEventStream(cfg.Coordinator.EventBufferSize, logger),
		perf:       &performanceTracker{},
		metrics:    deps.Metrics,
		tracer:     otel.Tracer("swarmflow/coordinator"),
		status: types.CoordinatorStatus{
			State:     types.CoordinatorIdle,
			ChangedAt: time.Now(),
		},
		logger: logger.With(zap.String("component", "coordinator")),
	}
	return c, nil
}

// RegisterAgent adds a worker agent to the pool.
func (c *Coordinator) RegisterAgent(agent types.Agent) error {
	if err := c.registry.Register(agent); err != nil {
		return err
	}
	c.events.publish(Event{Type: EventAgentRegistered, AgentID: agent.ID})
	c.updateAgentGauges()
	return nil
}

// ExecuteComplexTask runs the full pipeline for one task: decomposition
// by the supervisor, role-based assignment, concurrent execution, and
// order-independent aggregation. Pipeline failures are reported on the
// returned result, never as a panic or a half-written state.
func (c *Coordinator) ExecuteComplexTask(ctx context.Context, task types.Task) *types.AggregatedResult {
	return c.runPipeline(ctx, task, false)
}

// ExecuteWithSupervision runs the pipeline with full supervision: every
// subtask result passes through a supervisor review, and the aggregated
// result receives a final review as well.
func (c *Coordinator) ExecuteWithSupervision(ctx context.Context, task types.Task) *types.AggregatedResult {
	task.Supervision = types.SupervisionFull
	return c.runPipeline(ctx, task, false)
}

// ExecuteConcurrentTasks runs independent tasks concurrently and returns
// one aggregated result per task, in input order.
func (c *Coordinator) ExecuteConcurrentTasks(ctx context.Context, tasks []types.Task) []*types.AggregatedResult {
	results := make([]*types.AggregatedResult, len(tasks))

	group, ctx := errgroup.WithContext(ctx)
	if max := c.cfg.Coordinator.MaxConcurrentTasks; max > 0 {
		group.SetLimit(max)
	}
	for i, task := range tasks {
		i, task := i, task
		group.Go(func() error {
			results[i] = c.runPipeline(ctx, task, false)
			return nil
		})
	}
	// pipeline errors land on the individual results
	_ = group.Wait()
	return results
}

// ExecuteWithLoadBalancing routes whole tasks across the available pool
// so agent queues stay balanced, then awaits every assignment. Each task
// is executed by exactly one agent.
func (c *Coordinator) ExecuteWithLoadBalancing(ctx context.Context, tasks []types.Task) []*types.AggregatedResult {
	ctx, span := c.tracer.Start(ctx, "coordinator.execute_with_load_balancing",
		trace.WithAttributes(attribute.Int("task_count", len(tasks))))
	defer span.End()

	agents := c.registry.Available()
	if len(agents) == 0 {
		results := make([]*types.AggregatedResult, len(tasks))
		for i, task := range tasks {
			results[i] = c.runTask(ctx, task, false, func(ctx context.Context, task types.Task) *types.AggregatedResult {
				return &types.AggregatedResult{
					TaskID: task.ID,
					Err:    types.NewError(types.ErrNoAvailableAgents, "no agents available for load balancing").WithRetryable(true),
				}
			})
		}
		return results
	}

	queues := c.balancer.DistributeTasks(tasks, agents)

	byTaskID := make(map[string]*types.AggregatedResult, len(tasks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for agentID, queue := range queues {
		if len(queue) == 0 {
			continue
		}
		wg.Add(1)
		go func(agentID string, queue []types.Task) {
			defer wg.Done()
			for _, task := range queue {
				result := c.runTask(ctx, task, false, func(ctx context.Context, task types.Task) *types.AggregatedResult {
					return c.executeOnAgent(ctx, task, agentID)
				})
				mu.Lock()
				byTaskID[task.ID] = result
				mu.Unlock()
			}
		}(agentID, queue)
	}
	wg.Wait()

	results := make([]*types.AggregatedResult, len(tasks))
	for i, task := range tasks {
		results[i] = byTaskID[task.ID]
	}
	return results
}

// executeOnAgent runs one whole task on one pre-selected agent.
func (c *Coordinator) executeOnAgent(ctx context.Context, task types.Task, agentID string) *types.AggregatedResult {
	agent, ok := c.registry.Get(agentID)
	if !ok {
		return &types.AggregatedResult{
			TaskID: task.ID,
			Err:    types.NewError(types.ErrAgentNotFound, "agent not registered: "+agentID),
		}
	}
	subtask := types.SubTask{
		ID:                   uuid.NewString(),
		ParentTaskID:         task.ID,
		Description:          task.Description,
		Role:                 agent.Role,
		RequiredCapabilities: task.RequiredCapabilities,
	}
	assignment := types.TaskAssignment{SubTask: subtask, AgentID: agentID, AssignedAt: time.Now()}

	// the agent is observably busy for the duration; the executor flips
	// it back on completion
	c.registry.CompareAndSetStatus(agentID, types.AgentAvailable, types.AgentBusy)

	results, err := c.executor.ExecuteAll(ctx, task.ID, []types.TaskAssignment{assignment}, task.Supervision)
	aggregated := c.aggregate(task, results, 0, 0)
	if err != nil {
		aggregated.Err = pipelineError(err)
		aggregated.Success = false
	}
	return aggregated
}

// AchieveConsensus poses the question to every available agent matching
// the requested roles and pools the answers through the consensus
// engine. Not reaching consensus is a normal outcome; having nobody to
// ask is an error.
func (c *Coordinator) AchieveConsensus(ctx context.Context, task types.ConsensusTask) (*types.ConsensusResult, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.achieve_consensus",
		trace.WithAttributes(attribute.String("task_id", task.ID)))
	defer span.End()

	threshold := c.cfg.Consensus.DefaultThreshold
	if task.Threshold != nil {
		threshold = *task.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, types.NewError(types.ErrInvalidConfiguration, "consensus threshold must be in [0,1]")
	}

	roles := task.Roles
	if len(roles) == 0 {
		roles = types.AllRoles()
	}

	var assignments []types.TaskAssignment
	for _, role := range roles {
		subtask := types.SubTask{
			ID:           uuid.NewString(),
			ParentTaskID: task.ID,
			Description:  task.Question,
			Role:         role,
		}
		// the question reaches every available agent of the role, so the
		// agreement level reflects the whole pool
		assignments = append(assignments, c.balancer.AssignAll(subtask)...)
	}
	if len(assignments) == 0 {
		return nil, types.NewError(types.ErrNoAvailableAgents, "no agents available for consensus").WithRetryable(true)
	}

	results, err := c.executor.ExecuteAll(ctx, task.ID, assignments, types.SupervisionNone)
	if err != nil {
		return nil, err
	}

	consensus, err := c.consensus.Analyze(task.ID, results, threshold)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordConsensus(false)
		}
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.RecordConsensus(consensus.Reached)
	}
	if consensus.Reached {
		c.events.publish(Event{Type: EventConsensusReached, TaskID: task.ID, Message: consensus.Answer})
	} else {
		c.events.publish(Event{Type: EventConsensusFailed, TaskID: task.ID})
	}
	return consensus, nil
}

// ResolveConflict arbitrates conflicting agent positions through the
// frontier supervisor. The supervisor is always involved.
func (c *Coordinator) ResolveConflict(ctx context.Context, task types.ConflictTask) (*types.ConflictResolution, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.resolve_conflict",
		trace.WithAttributes(attribute.String("task_id", task.ID)))
	defer span.End()

	resolution, err := c.supervisor.ResolveConflict(ctx, task)
	if err != nil {
		return nil, err
	}
	resolution.TaskID = task.ID
	resolution.SupervisorInvolved = true
	c.events.publish(Event{Type: EventConflictResolved, TaskID: task.ID, Message: resolution.Resolution})
	return resolution, nil
}

// SimulateAgentFailure marks an agent failed as if it had crashed,
// exercising the recovery path without a real fault.
func (c *Coordinator) SimulateAgentFailure(agentID string) error {
	if err := c.recovery.MarkFailed(agentID); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordAgentFailure()
	}
	c.events.publish(Event{Type: EventAgentFailed, AgentID: agentID})
	c.updateAgentGauges()
	if c.recovery.Degraded() {
		c.events.publish(Event{Type: EventDegradedMode})
	}
	return nil
}

// RestoreAgent returns a failed agent to the available pool.
func (c *Coordinator) RestoreAgent(agentID string) error {
	if err := c.recovery.Restore(agentID); err != nil {
		return err
	}
	c.events.publish(Event{Type: EventAgentRestored, AgentID: agentID})
	c.updateAgentGauges()
	return nil
}

// ExecuteWithFailureRecovery runs the pipeline while routing around
// failed agents. When no healthy agent can take any subtask the task
// fails cleanly with NO_AVAILABLE_AGENTS.
func (c *Coordinator) ExecuteWithFailureRecovery(ctx context.Context, task types.Task) *types.AggregatedResult {
	return c.runPipeline(ctx, task, false)
}

// ExecuteWithGracefulDegradation runs the pipeline and, when fewer than
// half of the registered agents are healthy, marks the result degraded
// and scales its quality score down.
func (c *Coordinator) ExecuteWithGracefulDegradation(ctx context.Context, task types.Task) *types.AggregatedResult {
	return c.runPipeline(ctx, task, true)
}

// runPipeline is the shared decompose → assign → execute → aggregate
// pipeline behind every task-shaped entry point.
func (c *Coordinator) runPipeline(ctx context.Context, task types.Task, degradable bool) *types.AggregatedResult {
	ctx, span := c.tracer.Start(ctx, "coordinator.run_pipeline",
		trace.WithAttributes(
			attribute.String("task_id", task.ID),
			attribute.String("supervision", string(task.Supervision)),
		))
	defer span.End()

	return c.runTask(ctx, task, degradable, c.executePipeline)
}

// runTask wraps one task execution with the bookkeeping every execute
// entry point shares: status transitions, task events, context and
// result persistence, and performance and metrics recording.
func (c *Coordinator) runTask(ctx context.Context, task types.Task, degradable bool, execute func(context.Context, types.Task) *types.AggregatedResult) *types.AggregatedResult {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.SubmittedAt.IsZero() {
		task.SubmittedAt = time.Now()
	}
	if !task.Supervision.Valid() {
		task.Supervision = types.SupervisionMinimal
	}

	c.setStatus(types.CoordinatorExecuting, "")
	c.events.publish(Event{Type: EventTaskStarted, TaskID: task.ID})
	if err := c.store.StoreTaskContext(ctx, task); err != nil {
		c.logger.Warn("failed to store task context", zap.String("task_id", task.ID), zap.Error(err))
	}
	started := time.Now()

	result := execute(ctx, task)
	result.Duration = time.Since(started)

	if degradable {
		c.recovery.ApplyDegradation(result)
		if result.DegradedMode {
			c.events.publish(Event{Type: EventDegradedMode, TaskID: task.ID})
		}
	}

	c.storeResult(ctx, result)
	c.perf.recordTask(result.Success, result.Duration)
	if c.metrics != nil {
		c.metrics.RecordTask(result.Success, result.Duration)
	}
	c.updateAgentGauges()

	if result.Err != nil {
		c.setStatus(types.CoordinatorError, result.Err.Message)
		c.events.publish(Event{Type: EventTaskFailed, TaskID: task.ID, Message: result.Err.Message})
	} else {
		c.setStatus(types.CoordinatorIdle, "")
		c.events.publish(Event{Type: EventTaskCompleted, TaskID: task.ID})
	}
	return result
}

func (c *Coordinator) executePipeline(ctx context.Context, task types.Task) *types.AggregatedResult {
	subtasks, err := c.supervisor.Decompose(ctx, task)
	if err != nil {
		return &types.AggregatedResult{
			TaskID: task.ID,
			Err:    types.NewError(types.ErrTaskDecompositionFailed, "task decomposition failed").WithCause(err),
		}
	}
	if len(subtasks) == 0 {
		return &types.AggregatedResult{
			TaskID: task.ID,
			Err:    types.NewError(types.ErrTaskDecompositionFailed, "supervisor produced no subtasks"),
		}
	}
	for i := range subtasks {
		if len(subtasks[i].RequiredCapabilities) == 0 {
			subtasks[i].RequiredCapabilities = task.RequiredCapabilities
		}
	}

	assignments, unassigned := c.balancer.Assign(subtasks)
	if c.metrics != nil {
		c.metrics.RecordAssignment(len(assignments), len(unassigned))
	}
	if len(assignments) == 0 {
		return &types.AggregatedResult{
			TaskID:             task.ID,
			UnassignedSubtasks: len(unassigned),
			Err:                types.NewError(types.ErrNoAvailableAgents, "no agents available for any subtask").WithRetryable(true),
		}
	}

	results, err := c.executor.ExecuteAll(ctx, task.ID, assignments, task.Supervision)
	aggregated := c.aggregate(task, results, len(unassigned), 0)
	if err != nil {
		aggregated.Err = pipelineError(err)
		aggregated.Success = false
		return aggregated
	}

	if task.Supervision == types.SupervisionFull {
		review, reviewErr := c.supervisor.Review(ctx, aggregated, task)
		if reviewErr != nil {
			c.logger.Warn("aggregated review failed", zap.String("task_id", task.ID), zap.Error(reviewErr))
		} else {
			aggregated.Review = review
			if c.cfg.Coordinator.ReviewMode == config.ReviewGating && !review.Approved {
				aggregated.Success = false
			}
		}
	}
	return aggregated
}

// aggregate combines constituent results into an order-independent
// aggregate: results sort by subtask identity, the per-role slot takes
// the successful result for that role, and the quality score is the
// mean confidence.
func (c *Coordinator) aggregate(task types.Task, results []types.TaskResult, unassigned int, duration time.Duration) *types.AggregatedResult {
	aggregated := &types.AggregatedResult{
		TaskID:             task.ID,
		Success:            len(results) > 0,
		Results:            results,
		ByRole:             make(map[types.AgentRole]*types.TaskResult, len(results)),
		QualityScore:       types.QualityFromResults(results),
		UnassignedSubtasks: unassigned,
		Duration:           duration,
	}
	for i := range results {
		result := &aggregated.Results[i]
		if !result.Success {
			aggregated.Success = false
		}
		current, ok := aggregated.ByRole[result.Role]
		if !ok || (!current.Success && result.Success) {
			aggregated.ByRole[result.Role] = result
		}
	}
	return aggregated
}

func (c *Coordinator) storeResult(ctx context.Context, result *types.AggregatedResult) {
	if err := c.store.StoreAggregatedResult(ctx, result); err != nil {
		c.logger.Warn("failed to store aggregated result",
			zap.String("task_id", result.TaskID),
			zap.Error(err),
		)
	}
}

// GetAgentLoadDistribution reports outstanding assignments per agent ID.
func (c *Coordinator) GetAgentLoadDistribution() map[string]int {
	return c.balancer.LoadDistribution()
}

// Agents returns copies of all registered agents in registration order.
func (c *Coordinator) Agents() []types.Agent {
	return c.registry.All()
}

// Status returns the current coordinator status.
func (c *Coordinator) Status() types.CoordinatorStatus {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// Performance returns a snapshot of rolling execution statistics.
func (c *Coordinator) Performance() types.PerformanceSnapshot {
	return c.perf.snapshot(c.registry)
}

// Events returns the coordinator's event channel. Events are dropped
// when the buffer is full; DroppedEvents reports how many.
func (c *Coordinator) Events() <-chan Event {
	return c.events.events()
}

// DroppedEvents returns the number of events dropped so far.
func (c *Coordinator) DroppedEvents() int64 {
	return c.events.droppedCount()
}

// Close releases the event stream and the memory store.
func (c *Coordinator) Close() error {
	c.events.close()
	return c.store.Close()
}

// pipelineError coerces any error into the structured form carried on
// aggregated results.
func pipelineError(err error) *types.Error {
	if structured, ok := types.AsError(err); ok {
		return structured
	}
	return types.NewError(types.ErrAgentFailed, err.Error()).WithCause(err)
}

func (c *Coordinator) setStatus(state types.CoordinatorState, reason string) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status = types.CoordinatorStatus{
		State:     state,
		Reason:    reason,
		ChangedAt: time.Now(),
	}
}

func (c *Coordinator) updateAgentGauges() {
	if c.metrics == nil {
		return
	}
	c.metrics.UpdateAgentGauges(c.registry.Count(), c.registry.AvailableCount())
}
