// Copyright (c) SwarmFlow Authors.
// Licensed under the MIT License.

/*
Package workflow 提供可插拔的工作流引擎。

# 概述

workflow 包含两种执行语义：

  - Engine      — 顺序步骤链，前一步输出作为下一步输入
  - GraphEngine — 有向无环图，前驱全部完成后才执行节点，独立节点并发执行

图在执行前必须通过结构校验（入口存在、边引用已知节点、无环）；有环图
以 GRAPH_CYCLE 错误拒绝，其余结构问题报 WORKFLOW_INVALID。

# 定义文件

Definition 支持从 YAML 加载图定义，步骤名在 Build 时绑定到已注册的 Step
实现。两种引擎都会把每一步的执行记录写入 memory.Store。
*/
package workflow
