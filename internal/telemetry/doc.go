// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为 batchflow 提供集中式的 TracerProvider 和 MeterProvider 配置。
// 批处理器的 batch.process / batch.execute span 通过这里配置的 OTLP
// 导出器上报；遥测禁用时使用 noop 实现，不连接任何外部服务。
package telemetry
