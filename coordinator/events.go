package coordinator

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// EventType identifies what happened inside the coordinator.
type EventType string

const (
	EventTaskStarted      EventType = "task_started"
	EventTaskCompleted    EventType = "task_completed"
	EventTaskFailed       EventType = "task_failed"
	EventAgentRegistered  EventType = "agent_registered"
	EventAgentFailed      EventType = "agent_failed"
	EventAgentRestored    EventType = "agent_restored"
	EventConsensusReached EventType = "consensus_reached"
	EventConsensusFailed  EventType = "consensus_failed"
	EventConflictResolved EventType = "conflict_resolved"
	EventDegradedMode     EventType = "degraded_mode"
)

// Event is an observational record of coordinator activity. Events are
// best-effort: when no consumer keeps up they are dropped, never block
// task execution.
type Event struct {
	Type      EventType `json:"type"`
	TaskID    string    `json:"task_id,omitempty"`
	AgentID   string    `json:"agent_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// eventStream fans coordinator events out to a single buffered channel.
type eventStream struct {
	ch      chan Event
	dropped atomic.Int64
	closed  bool
	mu      sync.Mutex
	logger  *zap.Logger
}

func newEventStream(buffer int, logger *zap.Logger) *eventStream {
	if buffer <= 0 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &eventStream{
		ch:     make(chan Event, buffer),
		logger: logger.With(zap.String("component", "event_stream")),
	}
}

// publish delivers the event if buffer space remains, dropping it
// otherwise.
func (s *eventStream) publish(event Event) {
	event.Timestamp = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
	default:
		s.dropped.Add(1)
		s.logger.Debug("event dropped",
			zap.String("type", string(event.Type)),
			zap.Int64("total_dropped", s.dropped.Load()),
		)
	}
}

func (s *eventStream) events() <-chan Event {
	return s.ch
}

// droppedCount returns how many events were discarded for lack of a
// consumer.
func (s *eventStream) droppedCount() int64 {
	return s.dropped.Load()
}

func (s *eventStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
