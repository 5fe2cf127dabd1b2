// Package batchflow provides a top-level convenience entry point for one-shot
// adaptive batch runs.
//
// Usage:
//
//	import "github.com/BaSui01/batchflow"
//
//	res, err := batchflow.Process(ctx, userIDs, sendMessages)
//	res, err := batchflow.Process(ctx, userIDs, sendMessages, batchflow.WithLogger(logger))
//
// This is a thin wrapper around [batch.New] and [batch.Processor.Process]
// using [batch.DefaultConfig]. Construct a [batch.Processor] directly to tune
// the configuration or to reuse one rate limiter across runs.
package batchflow

import (
	"context"

	"github.com/BaSui01/batchflow/batch"
	"github.com/BaSui01/batchflow/progress"
)

// Option configures the processor created by [Process].
type Option = batch.Option

// Process runs op over items with the default configuration. The error is
// non-nil only when the configuration is invalid; item failures are reported
// in the result.
func Process[T, R any](ctx context.Context, items []T, op batch.Operation[T, R], opts ...Option) (*batch.Result[T, R], error) {
	return ProcessWithProgress(ctx, items, op, nil, opts...)
}

// ProcessWithProgress is [Process] with a progress callback.
func ProcessWithProgress[T, R any](ctx context.Context, items []T, op batch.Operation[T, R], onProgress func(progress.Report), opts ...Option) (*batch.Result[T, R], error) {
	p, err := batch.New[T, R](batch.DefaultConfig(), opts...)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, items, op, onProgress), nil
}

// ForEach fans each batch out to fn with the given concurrency and processes
// items with the default configuration. Rate-limit errors from fn fail the
// whole batch so it is retried at a smaller size.
func ForEach[T, R any](ctx context.Context, items []T, fn batch.ItemFunc[T, R], concurrency int, opts ...Option) (*batch.Result[T, R], error) {
	return Process(ctx, items, batch.ConcurrentOperation(fn, concurrency, nil), opts...)
}

// Re-export processor options so callers never need to import batch/.

// WithLogger sets a custom zap logger.
var WithLogger = batch.WithLogger

// WithRateLimiter shares a token bucket across runs.
var WithRateLimiter = batch.WithRateLimiter

// WithClassifier replaces the error classifier.
var WithClassifier = batch.WithClassifier

// WithRecorder sets a metrics recorder.
var WithRecorder = batch.WithRecorder

// WithTracer sets an OpenTelemetry tracer.
var WithTracer = batch.WithTracer
