package progress

import (
	"fmt"
	"time"
)

// Report is a point-in-time progress snapshot.
type Report struct {
	TotalItems      int     `json:"total_items"`
	ProcessedItems  int     `json:"processed_items"`
	FailedItems     int     `json:"failed_items"`
	CurrentBatch    int     `json:"current_batch"`
	TotalBatches    int     `json:"total_batches,omitempty"`
	PercentComplete float64 `json:"percent_complete"`

	Elapsed time.Duration `json:"elapsed"`
	// EstimatedRemaining is nil when no estimate is possible.
	EstimatedRemaining *time.Duration `json:"estimated_remaining,omitempty"`
	// CurrentRate is the smoothed throughput in items per second.
	CurrentRate float64 `json:"current_rate"`

	StatusMessage string    `json:"status_message"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// HasETA reports whether an estimate of the remaining time is available.
func (r Report) HasETA() bool {
	return r.EstimatedRemaining != nil
}

// String renders a single log-friendly line.
func (r Report) String() string {
	eta := "n/a"
	if r.EstimatedRemaining != nil {
		eta = r.EstimatedRemaining.Round(time.Second).String()
	}
	batches := fmt.Sprintf("%d", r.CurrentBatch)
	if r.TotalBatches > 0 {
		batches = fmt.Sprintf("%d/%d", r.CurrentBatch, r.TotalBatches)
	}
	return fmt.Sprintf("%s | items %d/%d (failed %d) | batches %s | %.1f items/s | elapsed %s | eta %s",
		r.StatusMessage, r.ProcessedItems, r.TotalItems, r.FailedItems, batches,
		r.CurrentRate, r.Elapsed.Round(time.Millisecond), eta)
}
