package progress

import (
	"fmt"
	"time"

	"github.com/BaSui01/batchflow/internal/ringbuf"
)

// rateWindow is the number of throughput samples averaged into CurrentRate.
const rateWindow = 10

// Sink receives generated reports.
type Sink func(Report)

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithSink sets the sink invoked by Emit.
func WithSink(sink Sink) TrackerOption {
	return func(t *Tracker) { t.sink = sink }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker accumulates processed/failed counts for one run.
type Tracker struct {
	totalItems     int
	processedItems int
	failedItems    int
	currentBatch   int

	startTime  time.Time
	lastReport time.Time
	rates      *ringbuf.Ring[float64]

	sink Sink
	now  func() time.Time
}

// NewTracker creates a tracker for totalItems work items.
func NewTracker(totalItems int, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		totalItems: max(totalItems, 0),
		rates:      ringbuf.New[float64](rateWindow),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.startTime = t.now()
	t.lastReport = t.startTime
	return t
}

// Update adds processed and failed counts and samples throughput.
func (t *Tracker) Update(processed, failed int) {
	t.processedItems += max(processed, 0)
	t.failedItems += max(failed, 0)

	elapsed := t.now().Sub(t.startTime).Seconds()
	if elapsed > 0 {
		t.rates.Push(float64(t.processedItems) / elapsed)
	}
}

// IncrementBatch bumps the batch counter.
func (t *Tracker) IncrementBatch() {
	t.currentBatch++
}

// ShouldReport reports whether at least interval has passed since the last
// generated report.
func (t *Tracker) ShouldReport(interval time.Duration) bool {
	return t.now().Sub(t.lastReport) >= interval
}

// Processed returns the processed item count.
func (t *Tracker) Processed() int { return t.processedItems }

// Failed returns the failed item count.
func (t *Tracker) Failed() int { return t.failedItems }

// CurrentBatch returns the number of finished batches.
func (t *Tracker) CurrentBatch() int { return t.currentBatch }

// GenerateReport builds a snapshot and marks the report time. totalBatches
// of 0 means the total is unknown.
func (t *Tracker) GenerateReport(totalBatches int) Report {
	now := t.now()
	t.lastReport = now

	r := Report{
		TotalItems:     t.totalItems,
		ProcessedItems: t.processedItems,
		FailedItems:    t.failedItems,
		CurrentBatch:   t.currentBatch,
		TotalBatches:   max(totalBatches, 0),
		Elapsed:        now.Sub(t.startTime),
		GeneratedAt:    now,
	}

	if t.totalItems > 0 {
		r.PercentComplete = float64(t.processedItems) / float64(t.totalItems) * 100
	}

	if rates := t.rates.Values(); len(rates) > 0 {
		var sum float64
		for _, v := range rates {
			sum += v
		}
		r.CurrentRate = sum / float64(len(rates))
	}

	remaining := t.totalItems - t.processedItems - t.failedItems
	if r.CurrentRate > 0 && remaining > 0 {
		eta := time.Duration(float64(remaining) / r.CurrentRate * float64(time.Second))
		r.EstimatedRemaining = &eta
	}

	r.StatusMessage = t.statusMessage(remaining)
	return r
}

// Emit generates a report and hands it to the sink, if any.
func (t *Tracker) Emit(totalBatches int) Report {
	r := t.GenerateReport(totalBatches)
	if t.sink != nil {
		t.sink(r)
	}
	return r
}

func (t *Tracker) statusMessage(remaining int) string {
	switch {
	case remaining <= 0:
		return "Complete"
	case t.processedItems+t.failedItems == 0:
		return "Not started"
	default:
		return fmt.Sprintf("Processing: %.1f%% complete", float64(t.processedItems)/float64(t.totalItems)*100)
	}
}
