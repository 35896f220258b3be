// Copyright (c) SwarmFlow Authors.
// Licensed under the MIT License.

/*
Package memory 提供协调引擎的记忆存储。

# 概述

memory 持久化任务上下文、逐条执行历史、聚合结果与跨 Agent 共享上下文。
协调器将其视为外部协作者：写入失败只记日志，绝不让任务流水线失败。

# 实现

  - InMemoryStore — 进程内实现，读写加锁，读取返回副本
  - RedisStore    — go-redis 实现，JSON 序列化，执行历史用 List 保序

两种实现均满足 Store 接口，可互换注入协调器与工作流引擎。
*/
package memory
