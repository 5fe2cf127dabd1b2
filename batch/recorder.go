package batch

import "time"

// 尝试结果标签
const (
	OutcomeSuccess   = "success"
	OutcomeTimeout   = "timeout"
	OutcomeRateLimit = "rate_limit"
	OutcomeError     = "error"
	OutcomeCanceled  = "canceled"
)

// Recorder 接收运行期指标。实现必须并发安全，多个 Process 调用可能共享同一个 Recorder。
type Recorder interface {
	ObserveBatchSize(size int)
	ObserveRateLimitWait(wait time.Duration)
	ObserveAttempt(outcome string, d time.Duration)
	ObserveBatch(succeeded, failed int, d time.Duration)
	ObserveRun(status Status, processed, failed int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveBatchSize(int)                       {}
func (nopRecorder) ObserveRateLimitWait(time.Duration)         {}
func (nopRecorder) ObserveAttempt(string, time.Duration)       {}
func (nopRecorder) ObserveBatch(int, int, time.Duration)       {}
func (nopRecorder) ObserveRun(Status, int, int, time.Duration) {}
