package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/batchflow/internal/ctxkeys"
	"github.com/BaSui01/batchflow/progress"
	"github.com/BaSui01/batchflow/ratelimit"
	"github.com/BaSui01/batchflow/retry"
	"github.com/BaSui01/batchflow/sizing"
	"github.com/BaSui01/batchflow/types"
)

const tracerName = "github.com/BaSui01/batchflow/batch"

// Option 配置 Processor
type Option func(*options)

type options struct {
	logger     *zap.Logger
	limiter    *ratelimit.TokenBucket
	classifier retry.Classifier
	recorder   Recorder
	tracer     trace.Tracer
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRateLimiter 使用外部令牌桶，多个 Processor 可共享同一个限流器
func WithRateLimiter(limiter *ratelimit.TokenBucket) Option {
	return func(o *options) { o.limiter = limiter }
}

// WithClassifier 替换默认的错误分类器
func WithClassifier(c retry.Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithRecorder 设置指标记录器
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithTracer 设置 OpenTelemetry tracer，默认使用全局 TracerProvider
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// Processor 自适应批处理引擎。
//
// 每次 Process 调用拥有独立的批大小策略与进度跟踪器，只有令牌桶在调用之间共享。
type Processor[T, R any] struct {
	cfg        Config
	policy     retry.Policy
	limiter    *ratelimit.TokenBucket
	classifier retry.Classifier
	recorder   Recorder
	tracer     trace.Tracer
	logger     *zap.Logger

	// 限流告警节流，避免持续限流时刷屏
	rateLimitWarn *rate.Sometimes
}

// New 创建 Processor，配置非法时返回 ErrInvalidConfig
func New[T, R any](cfg Config, opts ...Option) (*Processor[T, R], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.limiter == nil {
		o.limiter = ratelimit.New(cfg.MaxRequestsPerSecond, cfg.BurstCapacity,
			ratelimit.WithLogger(o.logger.Named("ratelimit")))
	}
	if o.classifier == nil {
		o.classifier = retry.DefaultClassifier
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	return &Processor[T, R]{
		cfg:           cfg,
		policy:        cfg.retryPolicy(),
		limiter:       o.limiter,
		classifier:    o.classifier,
		recorder:      o.recorder,
		tracer:        o.tracer,
		logger:        o.logger.With(zap.String("component", "batch_processor")),
		rateLimitWarn: &rate.Sometimes{Interval: 5 * time.Second},
	}, nil
}

// Config 返回处理器配置
func (p *Processor[T, R]) Config() Config {
	return p.cfg
}

// run 单次 Process 调用的状态，仅由处理循环访问
type run[T, R any] struct {
	result  *Result[T, R]
	sizer   *sizing.AdaptiveSizer
	tracker *progress.Tracker
	logger  *zap.Logger
	op      Operation[T, R]
	report  bool
}

// attempt 单次调用的结果
type attempt[T, R any] struct {
	results  []R
	failures []ItemError[T]
	err      error
	timedOut bool
	canceled bool
}

// Process 处理全部条目，直到每个条目都成功或被归因为失败。
//
// 任何错误都不会从 Process 逃逸：失败条目记录在 Result.FailedItems，
// 整体结果由 Result.Status 表示。ctx 被取消时，当前批次与剩余条目
// 均以取消错误记为失败。
func (p *Processor[T, R]) Process(ctx context.Context, items []T, op Operation[T, R], onProgress ProgressFunc) *Result[T, R] {
	ctx, span := p.tracer.Start(ctx, "batch.process",
		trace.WithAttributes(attribute.Int("batch.total_items", len(items))))
	defer span.End()

	res := &Result[T, R]{
		RunID:      uuid.NewString(),
		Status:     StatusProcessing,
		TotalItems: len(items),
		StartTime:  time.Now(),
		Results:    make([]R, 0, len(items)),
	}
	span.SetAttributes(attribute.String("batch.run_id", res.RunID))
	ctx = ctxkeys.WithRunID(ctx, res.RunID)

	r := &run[T, R]{
		result: res,
		logger: p.logger.With(zap.String("run_id", res.RunID)),
		op:     op,
		report: p.cfg.EnableProgressCallbacks && onProgress != nil,
	}
	var trackerOpts []progress.TrackerOption
	if r.report {
		trackerOpts = append(trackerOpts, progress.WithSink(progress.Sink(onProgress)))
	}
	r.tracker = progress.NewTracker(len(items), trackerOpts...)
	r.sizer = sizing.New(p.cfg.sizingConfig(), sizing.WithLogger(r.logger.Named("sizing")))

	r.logger.Info("batch run started",
		zap.Int("total_items", len(items)),
		zap.Int("initial_batch_size", r.sizer.Current()),
	)

	remaining := items
	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			p.failItems(r, remaining, canceledError(err))
			break
		}

		size := min(r.sizer.NextSize(), len(remaining))
		// 截断容量，防止 Operation 的 append 覆盖后续条目
		batch := remaining[:size:size]
		remaining = remaining[size:]

		p.recorder.ObserveBatchSize(size)
		p.executeBatch(ctx, r, batch)

		res.TotalBatches++
		r.tracker.IncrementBatch()
		if r.report && r.tracker.ShouldReport(p.cfg.ReportInterval) {
			r.tracker.Emit(res.TotalBatches + estimateBatches(len(remaining), r.sizer.Current()))
		}
	}

	p.finalize(r)

	span.SetAttributes(
		attribute.String("batch.status", res.Status.String()),
		attribute.Int("batch.processed_items", res.ProcessedItems),
		attribute.Int("batch.failed_items", len(res.FailedItems)),
		attribute.Int("batch.total_batches", res.TotalBatches),
	)
	if res.Status != StatusCompleted {
		span.SetStatus(codes.Error, fmt.Sprintf("%d items failed", len(res.FailedItems)))
	}
	return res
}

// executeBatch 等待令牌后执行一个批次，并在失败时按策略重试
func (p *Processor[T, R]) executeBatch(ctx context.Context, r *run[T, R], batch []T) {
	index := r.result.TotalBatches
	ctx, span := p.tracer.Start(ctx, "batch.execute",
		trace.WithAttributes(
			attribute.Int("batch.index", index),
			attribute.Int("batch.size", len(batch)),
		))
	defer span.End()
	ctx = ctxkeys.WithBatchIndex(ctx, index)

	waited, err := p.limiter.Acquire(ctx, 1)
	p.recorder.ObserveRateLimitWait(waited)
	if err != nil {
		p.recorder.ObserveAttempt(OutcomeCanceled, 0)
		p.failItems(r, batch, canceledError(err))
		span.SetStatus(codes.Error, "canceled while waiting for rate limiter")
		return
	}
	if waited > 0 {
		r.logger.Debug("rate limiter applied backpressure",
			zap.Int("batch", index),
			zap.Duration("waited", waited),
		)
	}

	batchStart := time.Now()
	retried := false

	for n := 0; n < p.policy.MaxAttempts; n++ {
		start := time.Now()
		out := p.invoke(ctx, r.op, batch, n+1)
		elapsed := time.Since(start)

		if out.err == nil {
			p.recordSuccess(r, batch, out, elapsed)
			p.recorder.ObserveAttempt(OutcomeSuccess, elapsed)
			p.recorder.ObserveBatch(len(batch)-len(out.failures), len(out.failures), time.Since(batchStart))
			r.logger.Debug("batch succeeded",
				zap.Int("batch", index),
				zap.Int("size", len(batch)),
				zap.Int("attempt", n+1),
				zap.Int("item_failures", len(out.failures)),
				zap.Duration("elapsed", elapsed),
			)
			return
		}

		if out.canceled {
			p.recorder.ObserveAttempt(OutcomeCanceled, elapsed)
			p.failItems(r, batch, canceledError(out.err))
			span.SetStatus(codes.Error, "canceled")
			return
		}

		kind := retry.KindTimeout
		if !out.timedOut {
			kind = p.classifier(out.err)
		}
		final := p.policy.IsFinal(n)

		switch kind {
		case retry.KindTimeout:
			p.recorder.ObserveAttempt(OutcomeTimeout, elapsed)
			r.logger.Warn("batch attempt timed out",
				zap.Int("batch", index),
				zap.Int("size", len(batch)),
				zap.Int("attempt", n+1),
				zap.Int("max_attempts", p.policy.MaxAttempts),
				zap.Duration("timeout", p.cfg.OperationTimeout),
			)
		case retry.KindRateLimit:
			r.sizer.RecordFailure(true)
			p.recorder.ObserveAttempt(OutcomeRateLimit, elapsed)
			p.rateLimitWarn.Do(func() {
				r.logger.Warn("upstream rate limited, shrinking batch size",
					zap.Int("batch", index),
					zap.Int("new_batch_size", r.sizer.Current()),
					zap.Error(out.err),
				)
			})
		default:
			r.sizer.RecordFailure(false)
			p.recorder.ObserveAttempt(OutcomeError, elapsed)
			r.logger.Warn("batch attempt failed",
				zap.Int("batch", index),
				zap.Int("size", len(batch)),
				zap.Int("attempt", n+1),
				zap.Int("max_attempts", p.policy.MaxAttempts),
				zap.Error(out.err),
			)
		}

		if final {
			terminal := exhaustedError(kind, out.err, p.policy.MaxAttempts)
			p.failItems(r, batch, terminal)
			p.recorder.ObserveBatch(0, len(batch), time.Since(batchStart))
			span.RecordError(terminal)
			span.SetStatus(codes.Error, terminal.Error())
			r.logger.Error("batch exhausted retries",
				zap.Int("batch", index),
				zap.Int("size", len(batch)),
				zap.Error(terminal),
			)
			return
		}

		if !retried {
			retried = true
			r.result.RetryCount++
		}
		delay := p.policy.Delay(n)
		span.AddEvent("retry", trace.WithAttributes(
			attribute.Int("attempt", n+1),
			attribute.String("reason", kind.String()),
			attribute.Int64("backoff_ms", delay.Milliseconds()),
		))
		if err := p.policy.Wait(ctx, n); err != nil {
			p.recorder.ObserveAttempt(OutcomeCanceled, 0)
			p.failItems(r, batch, canceledError(ctx.Err()))
			span.SetStatus(codes.Error, "canceled during backoff")
			return
		}
	}
}

// invoke 在超时保护下执行一次 Operation。超时后不再等待该调用，
// 结果通道带缓冲，被放弃的 goroutine 仍可正常退出。
func (p *Processor[T, R]) invoke(ctx context.Context, op Operation[T, R], batch []T, n int) attempt[T, R] {
	attemptCtx, cancel := context.WithTimeout(ctxkeys.WithAttempt(ctx, n), p.cfg.OperationTimeout)
	defer cancel()

	done := make(chan attempt[T, R], 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- attempt[T, R]{err: types.NewError(types.ErrOperationPanic, fmt.Sprintf("operation panicked: %v", v))}
			}
		}()
		results, failures, err := op(attemptCtx, batch)
		done <- attempt[T, R]{results: results, failures: failures, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if ctx.Err() != nil {
				out.canceled = true
			} else if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
				out.timedOut = true
			}
		}
		return out
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return attempt[T, R]{err: err, canceled: true}
		}
		return attempt[T, R]{
			err: types.NewError(types.ErrTimeout,
				fmt.Sprintf("operation timed out after %s", p.cfg.OperationTimeout)).
				WithCause(context.DeadlineExceeded).
				WithRetryable(true),
			timedOut: true,
		}
	}
}

func (p *Processor[T, R]) recordSuccess(r *run[T, R], batch []T, out attempt[T, R], elapsed time.Duration) {
	failures := distinctFailures(out.failures)
	if len(failures) > len(batch) {
		failures = failures[:len(batch)]
	}
	succeeded := len(batch) - len(failures)

	r.result.Results = append(r.result.Results, out.results...)
	r.result.FailedItems = append(r.result.FailedItems, failures...)
	r.result.ProcessedItems += succeeded

	r.sizer.RecordSuccess(elapsed)
	r.tracker.Update(succeeded, len(failures))
}

// distinctFailures 去掉同一条目的重复失败报告，保留第一次出现的错误。
// 条目的动态类型不可比较时（如切片）无法判重，原样返回。
func distinctFailures[T any](failures []ItemError[T]) (out []ItemError[T]) {
	if len(failures) < 2 {
		return failures
	}
	defer func() {
		if recover() != nil {
			out = failures
		}
	}()

	seen := make(map[any]struct{}, len(failures))
	out = make([]ItemError[T], 0, len(failures))
	for _, f := range failures {
		key := any(f.Item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}

// failItems 将整组条目以同一个错误记为失败
func (p *Processor[T, R]) failItems(r *run[T, R], items []T, err error) {
	for _, item := range items {
		r.result.FailedItems = append(r.result.FailedItems, ItemError[T]{Item: item, Err: err})
	}
	r.tracker.Update(0, len(items))
}

func (p *Processor[T, R]) finalize(r *run[T, R]) {
	res := r.result
	res.EndTime = time.Now()
	d := res.Duration()

	if res.TotalBatches > 0 {
		res.AvgBatchSize = float64(res.TotalItems) / float64(res.TotalBatches)
		res.AvgProcessingTime = d / time.Duration(res.TotalBatches)
	}
	if secs := d.Seconds(); secs > 0 {
		res.EffectiveRate = float64(res.ProcessedItems) / secs
	}
	res.Status = terminalStatus(res.ProcessedItems, len(res.FailedItems))

	if r.report {
		r.tracker.Emit(res.TotalBatches)
	}
	p.recorder.ObserveRun(res.Status, res.ProcessedItems, len(res.FailedItems), d)

	stats := r.sizer.Statistics()
	r.logger.Info("batch run finished",
		zap.String("status", res.Status.String()),
		zap.Int("total_items", res.TotalItems),
		zap.Int("processed_items", res.ProcessedItems),
		zap.Int("failed_items", len(res.FailedItems)),
		zap.Int("total_batches", res.TotalBatches),
		zap.Int("retry_count", res.RetryCount),
		zap.Duration("duration", d),
		zap.Float64("effective_rate", res.EffectiveRate),
		zap.Int("final_batch_size", stats.CurrentSize),
		zap.Float64("avg_batch_size", stats.AvgSize),
	)
}

// estimateBatches 按当前批大小估算剩余批次数
func estimateBatches(remaining, size int) int {
	if remaining <= 0 || size <= 0 {
		return 0
	}
	return (remaining + size - 1) / size
}

func canceledError(cause error) error {
	return types.NewError(types.ErrCanceled, "batch run canceled").WithCause(cause)
}

// exhaustedError 构造重试耗尽后归因到每个条目的终止错误
func exhaustedError(kind retry.Kind, cause error, attempts int) error {
	switch kind {
	case retry.KindTimeout:
		return types.NewError(types.ErrTimeout,
			fmt.Sprintf("batch timed out after %d attempts", attempts)).
			WithCause(cause).
			WithRetryable(true)
	case retry.KindRateLimit:
		return types.NewError(types.ErrRateLimit,
			fmt.Sprintf("batch throttled after %d attempts", attempts)).
			WithCause(cause).
			WithRetryable(true)
	default:
		return types.NewError(types.ErrUpstreamError,
			fmt.Sprintf("batch failed after %d attempts", attempts)).
			WithCause(cause).
			WithRetryable(types.IsRetryable(cause))
	}
}
