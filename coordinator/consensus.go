package coordinator

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// ConsensusEngine pools independent agent answers and decides whether
// they agree strongly enough to count as consensus.
type ConsensusEngine struct {
	logger *zap.Logger
}

// NewConsensusEngine creates a consensus engine.
func NewConsensusEngine(logger *zap.Logger) *ConsensusEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsensusEngine{
		logger: logger.With(zap.String("component", "consensus_engine")),
	}
}

// Analyze groups the answers by normalized text, finds the plurality
// group, and compares its share of participants against the threshold.
// Ties between equally sized groups break to the group containing the
// earliest responder. A threshold outside [0,1] is a configuration
// error; an unreached consensus is a normal result, not an error.
func (e *ConsensusEngine) Analyze(taskID string, results []types.TaskResult, threshold float64) (*types.ConsensusResult, error) {
	if threshold < 0 || threshold > 1 {
		return nil, types.NewError(types.ErrInvalidConfiguration,
			fmt.Sprintf("consensus threshold must be in [0,1], got %v", threshold))
	}

	var answered []types.TaskResult
	for _, result := range results {
		if result.Success {
			answered = append(answered, result)
		}
	}
	if len(answered) == 0 {
		return nil, types.NewError(types.ErrConsensusNotReached, "no agent produced an answer").WithRetryable(true)
	}

	// groups maps normalized answers to the results that gave them.
	groups := make(map[string][]types.TaskResult)
	for _, result := range answered {
		key := normalizeAnswer(result.Output)
		groups[key] = append(groups[key], result)
	}

	var winner []types.TaskResult
	for _, group := range groups {
		if len(group) > len(winner) {
			winner = group
			continue
		}
		if len(group) == len(winner) && earliestIndex(group) < earliestIndex(winner) {
			winner = group
		}
	}

	level := float64(len(winner)) / float64(len(answered))
	answer := winner[0]
	for _, result := range winner[1:] {
		if result.CompletionIndex < answer.CompletionIndex {
			answer = result
		}
	}

	consensus := &types.ConsensusResult{
		TaskID:       taskID,
		Reached:      level >= threshold,
		Level:        level,
		Answer:       answer.Output,
		Participants: len(answered),
	}
	e.logger.Info("consensus analyzed",
		zap.String("task_id", taskID),
		zap.Bool("reached", consensus.Reached),
		zap.Float64("level", level),
		zap.Int("participants", consensus.Participants),
	)
	return consensus, nil
}

// normalizeAnswer makes agreement insensitive to case and whitespace
// so trivially different renderings of the same answer pool together.
func normalizeAnswer(answer string) string {
	return strings.Join(strings.Fields(strings.ToLower(answer)), " ")
}

func earliestIndex(group []types.TaskResult) int {
	if len(group) == 0 {
		return int(^uint(0) >> 1)
	}
	earliest := group[0].CompletionIndex
	for _, result := range group[1:] {
		if result.CompletionIndex < earliest {
			earliest = result.CompletionIndex
		}
	}
	return earliest
}
