// Package ctxkeys 定义批处理运行在 context 中携带的键。
package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	runIDKey      contextKey = "run_id"
	batchIndexKey contextKey = "batch_index"
	attemptKey    contextKey = "attempt"
)

// WithRunID 设置 RunID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID 获取 RunID
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithBatchIndex 设置批次序号（从 0 开始）
func WithBatchIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, batchIndexKey, index)
}

// BatchIndex 获取批次序号
func BatchIndex(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(batchIndexKey).(int)
	return v, ok
}

// WithAttempt 设置尝试次数（从 1 开始）
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey, attempt)
}

// Attempt 获取尝试次数
func Attempt(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(attemptKey).(int)
	if !ok || v < 1 {
		return 0, false
	}
	return v, true
}
