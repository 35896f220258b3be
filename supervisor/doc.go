// Copyright (c) SwarmFlow Authors.
// Licensed under the MIT License.

/*
Package supervisor 定义前沿监督者契约及其脚本化实现。

监督者负责任务分解、结果审查与冲突仲裁。协调器只依赖 Supervisor 接口；
ScriptedSupervisor 提供确定性的默认行为（按角色分解、按成功与否审查、
按多数派仲裁），既是未配置前沿端点时的回退，也是测试中的标准替身。
*/
package supervisor
