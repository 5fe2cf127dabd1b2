// Package config 提供 batchflow 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → BATCHFLOW_* 环境变量 的顺序叠加，
// 涵盖批处理引擎、日志、遥测、Prometheus 指标与模拟上游。
package config
