package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/batchflow/progress"
	"github.com/BaSui01/batchflow/retry"
)

// Operation 处理一个批次。
//
// 返回成功结果，以及操作自身判定失败的条目；返回非 nil error 表示整批
// 的系统性失败，引擎会按策略重试整批。
//
// 失败条目必须是本批次的成员，每个条目最多报告一次。同一条目的重复报告
// 只计一次失败（条目类型不可比较时无法判重，按报告数计）。
//
// 超时的尝试不会被强制终止：引擎取消 ctx 后不再等待，直接进入重试，
// 因此超时意味着"结果未知"。Operation 必须幂等，并应尊重 ctx 的取消。
type Operation[T, R any] func(ctx context.Context, batch []T) ([]R, []ItemError[T], error)

// ProgressFunc 接收进度报告。
//
// 在处理循环所在的 goroutine 上同步调用，慢回调会直接拖慢批处理；
// 耗时的上报请由调用方自行转到其他 goroutine。
type ProgressFunc func(progress.Report)

// ItemFunc 处理单个条目
type ItemFunc[T, R any] func(ctx context.Context, item T) (R, error)

// ConcurrentOperation 把逐条调用扇出为一个 Operation，最多 concurrency 个
// 并发（<= 0 表示不限）。
//
// systemic 判定哪些单条错误代表整批的系统性失败（例如上游限流）：
// 命中时取消其余调用并把该错误作为整批错误返回，以便引擎重试并缩小批次；
// 其余错误记为该条目的失败。systemic 为 nil 时把限流类错误视为系统性失败。
// 结果按输入顺序返回。
func ConcurrentOperation[T, R any](fn ItemFunc[T, R], concurrency int, systemic func(error) bool) Operation[T, R] {
	if systemic == nil {
		systemic = func(err error) bool {
			return retry.DefaultClassifier(err) == retry.KindRateLimit
		}
	}

	return func(ctx context.Context, batch []T) ([]R, []ItemError[T], error) {
		results := make([]R, len(batch))
		errs := make([]error, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		if concurrency > 0 {
			g.SetLimit(concurrency)
		}
		for i, item := range batch {
			g.Go(func() error {
				r, err := fn(gctx, item)
				if err != nil {
					if systemic(err) {
						return err
					}
					errs[i] = err
					return nil
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}

		out := make([]R, 0, len(batch))
		var failures []ItemError[T]
		for i, item := range batch {
			if errs[i] != nil {
				failures = append(failures, ItemError[T]{Item: item, Err: errs[i]})
				continue
			}
			out = append(out, results[i])
		}
		return out, failures, nil
	}
}
