package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// InMemoryStore is a Store implementation backed by in-process maps.
// It is used for local development and tests. All methods are safe for
// concurrent use.
type InMemoryStore struct {
	mu         sync.RWMutex
	tasks      map[string]types.Task
	executions map[string][]ExecutionRecord
	results    map[string]types.AggregatedResult
	shared     map[string]SharedContext

	now    func() time.Time
	logger *zap.Logger
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithClock overrides the store clock, used in tests.
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryStore) { s.now = now }
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore(logger *zap.Logger, opts ...InMemoryOption) *InMemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &InMemoryStore{
		tasks:      make(map[string]types.Task),
		executions: make(map[string][]ExecutionRecord),
		results:    make(map[string]types.AggregatedResult),
		shared:     make(map[string]SharedContext),
		now:        time.Now,
		logger:     logger.With(zap.String("component", "memory_store_inmemory")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreTaskContext persists the submitted task.
func (s *InMemoryStore) StoreTaskContext(ctx context.Context, task types.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if task.ID == "" {
		return types.NewError(types.ErrInvalidConfiguration, "task id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	return nil
}

// StoreExecution appends one execution record to the task's history.
func (s *InMemoryStore) StoreExecution(ctx context.Context, record ExecutionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.TaskID == "" {
		return types.NewError(types.ErrInvalidConfiguration, "execution record task id is required")
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[record.TaskID] = append(s.executions[record.TaskID], record)
	return nil
}

// StoreAggregatedResult persists the final result of a task.
func (s *InMemoryStore) StoreAggregatedResult(ctx context.Context, result *types.AggregatedResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result == nil || result.TaskID == "" {
		return types.NewError(types.ErrInvalidConfiguration, "aggregated result task id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.TaskID] = *result
	return nil
}

// ShareContext publishes a shared context entry.
func (s *InMemoryStore) ShareContext(ctx context.Context, shared SharedContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if shared.Key == "" {
		return types.NewError(types.ErrInvalidConfiguration, "shared context key is required")
	}
	shared.UpdatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.shared[shared.Key] = shared
	return nil
}

// TaskContext reads back a stored task.
func (s *InMemoryStore) TaskContext(ctx context.Context, taskID string) (*types.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, types.NewError(types.ErrNotFound, "task context not found: "+taskID)
	}
	return &task, nil
}

// Executions reads back the execution history of a task in write order.
func (s *InMemoryStore) Executions(ctx context.Context, taskID string) ([]ExecutionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.executions[taskID]
	out := make([]ExecutionRecord, len(records))
	copy(out, records)
	return out, nil
}

// AggregatedResult reads back a stored result.
func (s *InMemoryStore) AggregatedResult(ctx context.Context, taskID string) (*types.AggregatedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[taskID]
	if !ok {
		return nil, types.NewError(types.ErrNotFound, "aggregated result not found: "+taskID)
	}
	return &result, nil
}

// SharedContextByKey reads back a shared entry.
func (s *InMemoryStore) SharedContextByKey(ctx context.Context, key string) (*SharedContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	shared, ok := s.shared[key]
	if !ok {
		return nil, types.NewError(types.ErrNotFound, "shared context not found: "+key)
	}
	return &shared, nil
}

// Close releases store resources.
func (s *InMemoryStore) Close() error {
	return nil
}

// Ensure InMemoryStore implements Store
var _ Store = (*InMemoryStore)(nil)
