// =============================================================================
// 📦 SwarmFlow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Coordinator: DefaultCoordinatorConfig(),
		Executor:    DefaultExecutorConfig(),
		Consensus:   DefaultConsensusConfig(),
		Recovery:    DefaultRecoveryConfig(),
		Redis:       DefaultRedisConfig(),
		Log:         DefaultLogConfig(),
	}
}

// DefaultCoordinatorConfig 返回默认协调器配置
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		MaxConcurrentTasks: 8,
		EventBufferSize:    100,
		ReviewMode:         ReviewAdvisory,
	}
}

// DefaultExecutorConfig 返回默认执行器配置
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		InvokeTimeout:      2 * time.Minute,
		RateLimitPerSecond: 0,
		RateLimitBurst:     1,
	}
}

// DefaultConsensusConfig 返回默认共识配置
func DefaultConsensusConfig() ConsensusConfig {
	return ConsensusConfig{
		DefaultThreshold: 0.66,
	}
}

// DefaultRecoveryConfig 返回默认故障恢复配置
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		DegradationFactor: 0.7,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		PoolSize:  10,
		KeyPrefix: "swarmflow:",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
	}
}
