// =============================================================================
// 📦 batchflow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import (
	"time"

	"github.com/BaSui01/batchflow/batch"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Batch:     batch.DefaultConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   DefaultMetricsConfig(),
		Upstream:  DefaultUpstreamConfig(),
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "batchflow",
		SampleRate:   0.1,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Addr:      ":9091",
		Path:      "/metrics",
		Namespace: "batchflow",
	}
}

// DefaultUpstreamConfig 返回默认模拟上游配置
func DefaultUpstreamConfig() UpstreamConfig {
	return UpstreamConfig{
		Items:             500,
		Concurrency:       8,
		RequestsPerSecond: 200,
		Burst:             200,
		FailureRate:       0.02,
		Latency:           5 * time.Millisecond,
	}
}
