// Copyright (c) SwarmFlow Authors.
// Licensed under the MIT License.

/*
Package coordinator 实现多 Agent 任务协调引擎的核心。

# 概述

coordinator 将注册表、负载均衡器、执行器、共识引擎与故障恢复管理器组合为
完整的 Task Coordinator。所有入口方法均可并发调用，Agent 状态变更统一经由
注册表互斥串行化。

# 组件

  - AgentRegistry           — Agent 注册与状态权威（available / busy / failed）
  - LoadBalancer            — 角色匹配 + 最小负载分派，整任务分发保持队列均衡
  - Executor                — 并发执行，限流、超时、监督级别（none/minimal/full）
  - ConsensusEngine         — 多数派共识分析，平票回退到最早响应者
  - FailureRecoveryManager  — 故障标记、回退 Agent、降级模式判定
  - Coordinator             — 组合上述组件并暴露全部协调操作（复合任务、并发批、
    负载均衡批、共识、仲裁、故障恢复、优雅降级）

# 可观测性

事件经缓冲通道发布（满时丢弃，绝不阻塞执行）；Prometheus 指标经 Collector
注册；协调操作包裹 OpenTelemetry span。
*/
package coordinator
