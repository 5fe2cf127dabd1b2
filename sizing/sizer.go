package sizing

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/batchflow/internal/ringbuf"
)

// historySize bounds the size and processing-time histories.
const historySize = 100

// Config holds the sizing subset of the engine configuration.
type Config struct {
	InitialBatchSize        int
	MinBatchSize            int
	MaxBatchSize            int
	EnableAdaptiveSizing    bool
	IncreaseFactor          float64
	DecreaseFactor          float64
	RateLimitDecreaseFactor float64
	SuccessThreshold        int
}

// DefaultConfig returns the engine's default sizing policy.
func DefaultConfig() Config {
	return Config{
		InitialBatchSize:        50,
		MinBatchSize:            1,
		MaxBatchSize:            200,
		EnableAdaptiveSizing:    true,
		IncreaseFactor:          1.5,
		DecreaseFactor:          0.5,
		RateLimitDecreaseFactor: 0.3,
		SuccessThreshold:        3,
	}
}

// Statistics is a diagnostic snapshot of the sizer.
type Statistics struct {
	CurrentSize          int           `json:"current_size"`
	AvgSize              float64       `json:"avg_size"`
	MinSize              int           `json:"min_size"`
	MaxSize              int           `json:"max_size"`
	AvgProcessingTime    time.Duration `json:"avg_processing_time"`
	ConsecutiveSuccesses int           `json:"consecutive_successes"`
	ConsecutiveFailures  int           `json:"consecutive_failures"`
	SamplesRecorded      int           `json:"samples_recorded"`
}

// AdaptiveSizer grows or shrinks the batch size from success/failure feedback.
type AdaptiveSizer struct {
	cfg Config

	current              int
	consecutiveSuccesses int
	consecutiveFailures  int

	sizes *ringbuf.Ring[int]
	times *ringbuf.Ring[time.Duration]

	logger *zap.Logger
}

// Option configures an AdaptiveSizer.
type Option func(*AdaptiveSizer)

// WithLogger sets the logger that records size adjustments.
func WithLogger(logger *zap.Logger) Option {
	return func(s *AdaptiveSizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a sizer. Bounds are normalized so that
// 1 <= MinBatchSize <= InitialBatchSize <= MaxBatchSize.
func New(cfg Config, opts ...Option) *AdaptiveSizer {
	if cfg.MinBatchSize < 1 {
		cfg.MinBatchSize = 1
	}
	if cfg.MaxBatchSize < cfg.MinBatchSize {
		cfg.MaxBatchSize = cfg.MinBatchSize
	}
	if cfg.SuccessThreshold < 1 {
		cfg.SuccessThreshold = 1
	}

	s := &AdaptiveSizer{
		cfg:     cfg,
		current: clamp(cfg.InitialBatchSize, cfg.MinBatchSize, cfg.MaxBatchSize),
		sizes:   ringbuf.New[int](historySize),
		times:   ringbuf.New[time.Duration](historySize),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextSize returns the current batch size and records it in the history.
func (s *AdaptiveSizer) NextSize() int {
	s.sizes.Push(s.current)
	return s.current
}

// Current returns the current batch size without touching the history.
func (s *AdaptiveSizer) Current() int {
	return s.current
}

// RecordSuccess feeds back a successful batch and its processing time.
// With adaptive sizing disabled only the history is updated.
func (s *AdaptiveSizer) RecordSuccess(d time.Duration) {
	s.consecutiveSuccesses++
	s.consecutiveFailures = 0
	s.times.Push(d)

	if !s.cfg.EnableAdaptiveSizing {
		return
	}
	if s.consecutiveSuccesses >= s.cfg.SuccessThreshold {
		next := int(float64(s.current) * s.cfg.IncreaseFactor)
		if s.cfg.IncreaseFactor > 1 && next <= s.current {
			next = s.current + 1
		}
		s.resize(clamp(next, s.cfg.MinBatchSize, s.cfg.MaxBatchSize), "success_streak")
		s.consecutiveSuccesses = 0
	}
}

// RecordFailure feeds back a failed attempt. Rate-limit failures shrink
// the size more aggressively.
func (s *AdaptiveSizer) RecordFailure(isRateLimit bool) {
	s.consecutiveSuccesses = 0
	s.consecutiveFailures++

	if !s.cfg.EnableAdaptiveSizing {
		return
	}

	factor := s.cfg.DecreaseFactor
	if isRateLimit {
		factor = s.cfg.RateLimitDecreaseFactor
	}
	reason := "failure"
	if isRateLimit {
		reason = "rate_limit"
	}
	next := int(math.Floor(float64(s.current) * factor))
	s.resize(clamp(next, s.cfg.MinBatchSize, s.cfg.MaxBatchSize), reason)
}

func (s *AdaptiveSizer) resize(next int, reason string) {
	if next == s.current {
		return
	}
	s.logger.Debug("batch size adjusted",
		zap.Int("from", s.current),
		zap.Int("to", next),
		zap.String("reason", reason),
	)
	s.current = next
}

// Statistics returns a snapshot for observability.
func (s *AdaptiveSizer) Statistics() Statistics {
	st := Statistics{
		CurrentSize:          s.current,
		ConsecutiveSuccesses: s.consecutiveSuccesses,
		ConsecutiveFailures:  s.consecutiveFailures,
		SamplesRecorded:      s.sizes.Len(),
	}

	sizes := s.sizes.Values()
	if len(sizes) > 0 {
		st.MinSize, st.MaxSize = sizes[0], sizes[0]
		total := 0
		for _, v := range sizes {
			total += v
			st.MinSize = min(st.MinSize, v)
			st.MaxSize = max(st.MaxSize, v)
		}
		st.AvgSize = float64(total) / float64(len(sizes))
	}

	times := s.times.Values()
	if len(times) > 0 {
		var total time.Duration
		for _, d := range times {
			total += d
		}
		st.AvgProcessingTime = total / time.Duration(len(times))
	}

	return st
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
