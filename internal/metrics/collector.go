// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/batchflow/batch"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器，实现 batch.Recorder
type Collector struct {
	// 运行指标
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	itemsTotal  *prometheus.CounterVec

	// 批次指标
	batchesTotal     prometheus.Counter
	batchDuration    prometheus.Histogram
	batchSize        prometheus.Gauge
	batchSizeHist    prometheus.Histogram
	attemptsTotal    *prometheus.CounterVec
	attemptDuration  *prometheus.HistogramVec
	rateLimitWait    prometheus.Histogram
	rateLimitWaiting prometheus.Counter

	// 上游指标
	upstreamRequestsTotal *prometheus.CounterVec

	logger *zap.Logger
}

var _ batch.Recorder = (*Collector)(nil)

// NewCollector 创建指标收集器。reg 为 nil 时注册到 prometheus 默认 Registry。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 运行指标
	c.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of finished batch runs",
		},
		[]string{"status"},
	)

	c.runDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Batch run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"status"},
	)

	c.itemsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Total number of items by outcome",
		},
		[]string{"outcome"},
	)

	// 批次指标
	c.batchesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Total number of batches that reached a final outcome",
		},
	)

	c.batchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Batch duration in seconds including retries and backoff",
			Buckets:   prometheus.DefBuckets,
		},
	)

	c.batchSize = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Size of the most recently dispatched batch",
		},
	)

	c.batchSizeHist = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size_items",
			Help:      "Distribution of dispatched batch sizes",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
		},
	)

	c.attemptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Total number of operation attempts by outcome",
		},
		[]string{"outcome"},
	)

	c.attemptDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_duration_seconds",
			Help:      "Operation attempt duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	c.rateLimitWait = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for rate limiter tokens",
			Buckets:   []float64{0, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	c.rateLimitWaiting = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_throttled_total",
			Help:      "Number of token acquisitions that had to wait",
		},
	)

	// 上游指标
	c.upstreamRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream requests by status class",
		},
		[]string{"status"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 📦 批处理指标记录
// =============================================================================

// ObserveBatchSize 记录派发的批大小
func (c *Collector) ObserveBatchSize(size int) {
	c.batchSize.Set(float64(size))
	c.batchSizeHist.Observe(float64(size))
}

// ObserveRateLimitWait 记录等待令牌的时间
func (c *Collector) ObserveRateLimitWait(d time.Duration) {
	c.rateLimitWait.Observe(d.Seconds())
	if d > 0 {
		c.rateLimitWaiting.Inc()
	}
}

// ObserveAttempt 记录单次尝试
func (c *Collector) ObserveAttempt(outcome string, d time.Duration) {
	c.attemptsTotal.WithLabelValues(outcome).Inc()
	c.attemptDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveBatch 记录批次最终结果
func (c *Collector) ObserveBatch(succeeded, failed int, d time.Duration) {
	c.batchesTotal.Inc()
	c.batchDuration.Observe(d.Seconds())
	c.itemsTotal.WithLabelValues("processed").Add(float64(succeeded))
	c.itemsTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObserveRun 记录整次运行
func (c *Collector) ObserveRun(status batch.Status, processed, failed int, d time.Duration) {
	c.runsTotal.WithLabelValues(status.String()).Inc()
	c.runDuration.WithLabelValues(status.String()).Observe(d.Seconds())
	c.logger.Debug("run recorded",
		zap.String("status", status.String()),
		zap.Int("processed", processed),
		zap.Int("failed", failed),
	)
}

// =============================================================================
// 🌐 上游指标记录
// =============================================================================

// RecordUpstreamRequest 记录上游 HTTP 状态
func (c *Collector) RecordUpstreamRequest(status int) {
	c.upstreamRequestsTotal.WithLabelValues(statusCode(status)).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code == 429:
		return "429"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
