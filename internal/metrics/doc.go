// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的批处理指标采集能力。

# 概述

Collector 实现 batch.Recorder，通过 batch.WithRecorder 注入处理器后，
自动记录批大小、限流等待、每次尝试与每次运行的结果。指标按
namespace 隔离，通过 promauto.With 注册到调用方提供的 Registry。

# 主要能力

  - 运行指标：runs_total、run_duration_seconds，按 status 分组。
  - 条目指标：items_total，按 outcome（processed/failed）分组。
  - 批次指标：batches_total、batch_duration_seconds、batch_size Gauge
    与 batch_size_items 分布。
  - 尝试指标：attempts_total、attempt_duration_seconds，按
    success/timeout/rate_limit/error/canceled 分组。
  - 限流指标：rate_limit_wait_seconds 与 rate_limit_throttled_total。
  - 上游指标：upstream_requests_total，状态码归类为 2xx/3xx/4xx/5xx，
    429 单独统计。
*/
package metrics
