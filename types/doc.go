// Copyright (c) SwarmFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 SwarmFlow 协调引擎的全局共享类型定义。

# 概述

types 是引擎最底层的公共包，不依赖任何内部包，为 coordinator、supervisor、
memory、workflow 等上层模块提供统一的类型契约。所有跨包共享的结构体、
枚举和错误码均定义于此，以避免循环依赖。

# 核心类型

  - Agent / AgentRole / AgentStatus — 工作 Agent 及其角色与可用状态
  - Task / SubTask / TaskAssignment — 任务分解与分派单元
  - TaskResult / AggregatedResult   — 单 Agent 结果与按角色聚合的总结果
  - ConsensusResult                 — 共识判定（是否达成、一致度、答案）
  - ConflictResolution              — 仲裁结果（解、置信度、是否经监督者）
  - ReviewResult                    — 监督者审查反馈
  - CoordinatorStatus               — 协调器状态机（idle / executing / error）
  - PerformanceSnapshot             — 滚动性能计数快照
  - Error / ErrorCode               — 结构化错误体系，含 Retryable 标记

# 主要能力

  - 错误工具链：NewError / WithCause / GetErrorCode / IsRetryable
  - 状态校验：AgentRole.Valid / AgentStatus.Valid / SupervisionLevel.Valid
  - 聚合计算：AggregatedResult.QualityFromResults（按置信度求均值）
*/
package types
