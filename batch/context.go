package batch

import (
	"context"

	"github.com/BaSui01/batchflow/internal/ctxkeys"
)

// RunIDFromContext 返回 Operation 所属运行的 RunID
func RunIDFromContext(ctx context.Context) (string, bool) {
	return ctxkeys.RunID(ctx)
}

// BatchIndexFromContext 返回当前批次序号（从 0 开始）
func BatchIndexFromContext(ctx context.Context) (int, bool) {
	return ctxkeys.BatchIndex(ctx)
}

// AttemptFromContext 返回当前批次的尝试次数（从 1 开始）
func AttemptFromContext(ctx context.Context) (int, bool) {
	return ctxkeys.Attempt(ctx)
}
