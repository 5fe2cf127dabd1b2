package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResult_SuccessRate(t *testing.T) {
	assert.Zero(t, (&Result[int, int]{}).SuccessRate())
	assert.InDelta(t, 0.75, (&Result[int, int]{TotalItems: 4, ProcessedItems: 3}).SuccessRate(), 1e-9)
}

func TestResult_Duration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &Result[int, int]{StartTime: start}
	assert.Zero(t, r.Duration(), "unfinished run has no duration")

	r.EndTime = start.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, r.Duration())
}

func TestResult_FailedCount(t *testing.T) {
	r := &Result[int, int]{FailedItems: []ItemError[int]{{Item: 1}, {Item: 2}}}
	assert.Equal(t, 2, r.FailedCount())
}

func TestTerminalStatus(t *testing.T) {
	tests := []struct {
		processed, failed int
		want              Status
	}{
		{0, 0, StatusCompleted},
		{5, 0, StatusCompleted},
		{3, 2, StatusPartial},
		{0, 4, StatusFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, terminalStatus(tt.processed, tt.failed), "processed=%d failed=%d", tt.processed, tt.failed)
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusPartial.IsTerminal())
}
