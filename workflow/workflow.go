package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/memory"
	"github.com/BaSui01/swarmflow/types"
)

// Step is a single unit of work inside a workflow. Steps receive the
// output of their predecessor as input.
type Step interface {
	Name() string
	Execute(ctx context.Context, input any) (any, error)
}

// StepFunc adapts a function to the Step interface.
type StepFunc func(ctx context.Context, input any) (any, error)

// FuncStep wraps a named function as a Step.
type FuncStep struct {
	name string
	fn   StepFunc
}

// NewFuncStep creates a function-backed step.
func NewFuncStep(name string, fn StepFunc) *FuncStep {
	return &FuncStep{name: name, fn: fn}
}

func (s *FuncStep) Name() string { return s.name }

func (s *FuncStep) Execute(ctx context.Context, input any) (any, error) {
	return s.fn(ctx, input)
}

// Workflow is an ordered sequence of steps. Execution is predictable:
// each step consumes the previous step's output.
type Workflow struct {
	Name        string
	Description string
	Steps       []Step
}

// Validate checks the workflow is executable.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return types.NewError(types.ErrWorkflowInvalid, "workflow name is required")
	}
	if len(w.Steps) == 0 {
		return types.NewError(types.ErrWorkflowInvalid, "workflow has no steps")
	}
	seen := make(map[string]bool, len(w.Steps))
	for _, step := range w.Steps {
		if step == nil || step.Name() == "" {
			return types.NewError(types.ErrWorkflowInvalid, "workflow contains an unnamed step")
		}
		if seen[step.Name()] {
			return types.NewError(types.ErrWorkflowInvalid, "duplicate step name: "+step.Name())
		}
		seen[step.Name()] = true
	}
	return nil
}

// Result is the outcome of one workflow run.
type Result struct {
	// RunID identifies this execution.
	RunID string
	// Workflow is the executed workflow's name.
	Workflow string
	// Output is the output of the final step.
	Output any
	// StepsExecuted counts the steps that ran.
	StepsExecuted int
	// Duration is the wall time of the run.
	Duration time.Duration
}

// Engine executes sequential workflows.
type Engine struct {
	store  memory.Store
	logger *zap.Logger
}

// NewEngine creates a sequential workflow engine. The store may be nil,
// in which case executions are not recorded.
func NewEngine(store memory.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		logger: logger.With(zap.String("component", "workflow_engine")),
	}
}

// ExecuteWorkflow runs the steps in order, feeding each step the output
// of the previous one. The first failing step aborts the run.
func (e *Engine) ExecuteWorkflow(ctx context.Context, wf *Workflow, input any) (*Result, error) {
	if err := wf.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	started := time.Now()
	current := input

	for i, step := range wf.Steps {
		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.ErrWorkflowInvalid, "workflow cancelled at step "+step.Name()).WithCause(err)
		}

		output, err := step.Execute(ctx, current)
		e.record(ctx, runID, step.Name(), err == nil)
		if err != nil {
			e.logger.Warn("workflow step failed",
				zap.String("workflow", wf.Name),
				zap.String("run_id", runID),
				zap.String("step", step.Name()),
				zap.Error(err),
			)
			return nil, types.NewError(types.ErrWorkflowInvalid, "step failed: "+step.Name()).WithCause(err)
		}
		current = output

		e.logger.Debug("workflow step completed",
			zap.String("workflow", wf.Name),
			zap.String("run_id", runID),
			zap.String("step", step.Name()),
			zap.Int("position", i),
		)
	}

	return &Result{
		RunID:         runID,
		Workflow:      wf.Name,
		Output:        current,
		StepsExecuted: len(wf.Steps),
		Duration:      time.Since(started),
	}, nil
}

func (e *Engine) record(ctx context.Context, runID, stepName string, success bool) {
	if e.store == nil {
		return
	}
	err := e.store.StoreExecution(ctx, memory.ExecutionRecord{
		TaskID:     runID,
		SubTaskID:  stepName,
		Success:    success,
		RecordedAt: time.Now(),
	})
	if err != nil {
		e.logger.Warn("failed to record workflow step", zap.Error(err))
	}
}
