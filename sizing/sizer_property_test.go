package sizing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// The current size stays within [MinBatchSize, MaxBatchSize] for any
// sequence of feedback events.
func TestProperty_AdaptiveSizer_SizeWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		minSize := rapid.IntRange(1, 50).Draw(rt, "min")
		maxSize := rapid.IntRange(minSize, 500).Draw(rt, "max")

		cfg := Config{
			InitialBatchSize:        rapid.IntRange(0, 600).Draw(rt, "initial"),
			MinBatchSize:            minSize,
			MaxBatchSize:            maxSize,
			EnableAdaptiveSizing:    true,
			IncreaseFactor:          rapid.Float64Range(1.0, 4.0).Draw(rt, "increase"),
			DecreaseFactor:          rapid.Float64Range(0.05, 0.95).Draw(rt, "decrease"),
			RateLimitDecreaseFactor: rapid.Float64Range(0.01, 0.95).Draw(rt, "rateDecrease"),
			SuccessThreshold:        rapid.IntRange(1, 5).Draw(rt, "threshold"),
		}
		s := New(cfg)

		events := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 200).Draw(rt, "events")
		for _, ev := range events {
			switch ev {
			case 0:
				s.RecordSuccess(time.Millisecond)
			case 1:
				s.RecordFailure(false)
			case 2:
				s.RecordFailure(true)
			case 3:
				first := s.NextSize()
				assert.Equal(rt, first, s.NextSize(), "NextSize must be idempotent")
			}

			cur := s.Current()
			if cur < minSize || cur > maxSize {
				rt.Fatalf("size %d escaped bounds [%d, %d]", cur, minSize, maxSize)
			}
		}
	})
}

// A rate-limit failure never leaves a larger batch than a generic failure.
func TestProperty_AdaptiveSizer_RateLimitShrinksAtLeastAsMuch(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		initial := rapid.IntRange(1, 1000).Draw(rt, "initial")
		decrease := rapid.Float64Range(0.3, 0.9).Draw(rt, "decrease")
		rateDecrease := rapid.Float64Range(0.01, decrease).Draw(rt, "rateDecrease")

		cfg := Config{
			InitialBatchSize:        initial,
			MinBatchSize:            1,
			MaxBatchSize:            1000,
			EnableAdaptiveSizing:    true,
			IncreaseFactor:          1.5,
			DecreaseFactor:          decrease,
			RateLimitDecreaseFactor: rateDecrease,
			SuccessThreshold:        3,
		}

		generic := New(cfg)
		generic.RecordFailure(false)
		limited := New(cfg)
		limited.RecordFailure(true)

		if limited.Current() > generic.Current() {
			rt.Fatalf("rate-limit shrink %d > generic shrink %d", limited.Current(), generic.Current())
		}
	})
}
