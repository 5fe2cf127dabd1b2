package batch

import "time"

// Status 运行状态
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusPartial    Status = "PARTIAL"
)

func (s Status) String() string { return string(s) }

// IsTerminal 是否为终态
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial:
		return true
	default:
		return false
	}
}

// ItemError 单个条目的失败归因
type ItemError[T any] struct {
	Item T
	Err  error
}

// Result 一次 Process 调用的汇总结果，返回后由调用方独占。
type Result[T, R any] struct {
	RunID          string         `json:"run_id"`
	Status         Status         `json:"status"`
	TotalItems     int            `json:"total_items"`
	ProcessedItems int            `json:"processed_items"`
	FailedItems    []ItemError[T] `json:"-"`
	Results        []R            `json:"results"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	TotalBatches      int           `json:"total_batches"`
	RetryCount        int           `json:"retry_count"`
	AvgBatchSize      float64       `json:"avg_batch_size"`
	AvgProcessingTime time.Duration `json:"avg_processing_time"`
	EffectiveRate     float64       `json:"effective_rate"`
}

// SuccessRate 返回成功比例，TotalItems 为 0 时返回 0
func (r *Result[T, R]) SuccessRate() float64 {
	if r.TotalItems == 0 {
		return 0
	}
	return float64(r.ProcessedItems) / float64(r.TotalItems)
}

// Duration 返回运行耗时，未结束时为 0
func (r *Result[T, R]) Duration() time.Duration {
	if r.EndTime.IsZero() || r.EndTime.Before(r.StartTime) {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// FailedCount 返回失败条目数
func (r *Result[T, R]) FailedCount() int {
	return len(r.FailedItems)
}

func terminalStatus(processed, failed int) Status {
	switch {
	case failed == 0:
		return StatusCompleted
	case processed > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}
