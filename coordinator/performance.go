package coordinator

import (
	"sync"
	"time"

	"github.com/BaSui01/swarmflow/types"
)

// performanceTracker accumulates run statistics for the Performance
// snapshot.
type performanceTracker struct {
	totalTasks      int64
	successfulTasks int64
	lastExecution   time.Duration
	mu              sync.Mutex
}

func (p *performanceTracker) recordTask(success bool, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.totalTasks++
	if success {
		p.successfulTasks++
	}
	p.lastExecution = duration
}

// snapshot materializes the counters into a PerformanceSnapshot against
// the current registry state.
func (p *performanceTracker) snapshot(registry *AgentRegistry) types.PerformanceSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := types.PerformanceSnapshot{
		TotalTasks:       p.totalTasks,
		SuccessfulTasks:  p.successfulTasks,
		LastExecution:    p.lastExecution,
		RegisteredAgents: registry.Count(),
		ActiveAgents:     registry.AvailableCount(),
		TakenAt:          time.Now(),
	}
	if p.totalTasks > 0 {
		snap.SuccessRate = float64(p.successfulTasks) / float64(p.totalTasks)
	}
	return snap
}
