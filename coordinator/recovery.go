package coordinator

import (
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// FailureRecoveryManager handles agent failures and the degraded mode
// the coordinator enters when too few agents remain healthy.
type FailureRecoveryManager struct {
	registry *AgentRegistry

	// degradationFactor scales quality scores while degraded, in (0,1].
	degradationFactor float64

	logger *zap.Logger
}

// NewFailureRecoveryManager creates a recovery manager over the registry.
func NewFailureRecoveryManager(registry *AgentRegistry, degradationFactor float64, logger *zap.Logger) *FailureRecoveryManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if degradationFactor <= 0 || degradationFactor > 1 {
		degradationFactor = 1
	}
	return &FailureRecoveryManager{
		registry:          registry,
		degradationFactor: degradationFactor,
		logger:            logger.With(zap.String("component", "failure_recovery")),
	}
}

// MarkFailed transitions the agent to failed. A failed agent stays
// registered but receives no new assignments until restored.
func (m *FailureRecoveryManager) MarkFailed(agentID string) error {
	if err := m.registry.SetStatus(agentID, types.AgentFailed); err != nil {
		return err
	}
	m.logger.Warn("agent marked failed", zap.String("agent_id", agentID))
	return nil
}

// Restore returns a previously failed agent to the available pool.
func (m *FailureRecoveryManager) Restore(agentID string) error {
	if err := m.registry.SetStatus(agentID, types.AgentAvailable); err != nil {
		return err
	}
	m.logger.Info("agent restored", zap.String("agent_id", agentID))
	return nil
}

// IsFailed reports whether the agent is currently marked failed.
func (m *FailureRecoveryManager) IsFailed(agentID string) bool {
	agent, ok := m.registry.Get(agentID)
	return ok && agent.Status == types.AgentFailed
}

// FallbackAgent returns any available agent, preferring the requested
// role but falling back to other roles when none match. Used when the
// agent originally holding a subtask fails.
func (m *FailureRecoveryManager) FallbackAgent(role types.AgentRole) (types.Agent, bool) {
	if candidates := m.registry.FindByRole(role); len(candidates) > 0 {
		return candidates[0], true
	}
	available := m.registry.Available()
	if len(available) == 0 {
		return types.Agent{}, false
	}
	return available[0], true
}

// Degraded reports whether fewer than half of the registered agents are
// available, the condition under which the coordinator operates with
// reduced confidence.
func (m *FailureRecoveryManager) Degraded() bool {
	registered := m.registry.Count()
	if registered == 0 {
		return false
	}
	return m.registry.AvailableCount()*2 < registered
}

// ApplyDegradation scales the result's quality score down and flags the
// result on when the coordinator is degraded. No-op otherwise.
func (m *FailureRecoveryManager) ApplyDegradation(result *types.AggregatedResult) {
	if result == nil || !m.Degraded() {
		return
	}
	result.DegradedMode = true
	result.QualityScore *= m.degradationFactor
	m.logger.Warn("degraded mode active",
		zap.String("task_id", result.TaskID),
		zap.Float64("quality_score", result.QualityScore),
	)
}
