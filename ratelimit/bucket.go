package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Option configures a TokenBucket.
type Option func(*TokenBucket)

// WithClock overrides the time source used for refill.
func WithClock(now func() time.Time) Option {
	return func(b *TokenBucket) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets the logger used to report waits for tokens.
func WithLogger(logger *zap.Logger) Option {
	return func(b *TokenBucket) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// TokenBucket is a token-bucket limiter with burst capacity.
type TokenBucket struct {
	rate  float64
	burst float64

	// gate serializes Acquire callers across refill, wait and debit.
	gate chan struct{}

	mu     sync.Mutex
	tokens float64
	last   time.Time

	now    func() time.Time
	logger *zap.Logger
}

// New creates a bucket refilling at rate tokens/second up to burst tokens.
// The bucket starts full. Non-positive values fall back to rate 1 / burst 1.
func New(rate float64, burst int, opts ...Option) *TokenBucket {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	b := &TokenBucket{
		rate:   rate,
		burst:  float64(burst),
		gate:   make(chan struct{}, 1),
		tokens: float64(burst),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.last = b.now()
	return b
}

// Rate returns the refill rate in tokens per second.
func (b *TokenBucket) Rate() float64 { return b.rate }

// Burst returns the bucket capacity.
func (b *TokenBucket) Burst() int { return int(b.burst) }

// Acquire takes n tokens, suspending the caller until the deficit has been
// refilled. It returns the time spent waiting for tokens. The only error is
// ctx cancellation, in which case no tokens are consumed.
func (b *TokenBucket) Acquire(ctx context.Context, n int) (time.Duration, error) {
	if n <= 0 {
		return 0, nil
	}

	select {
	case b.gate <- struct{}{}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	defer func() { <-b.gate }()

	b.mu.Lock()
	b.refill(b.now())
	deficit := float64(n) - b.tokens
	b.mu.Unlock()

	var wait time.Duration
	if deficit > 0 {
		wait = time.Duration(deficit / b.rate * float64(time.Second))
		b.logger.Debug("waiting for tokens",
			zap.Int("requested", n),
			zap.Float64("deficit", deficit),
			zap.Duration("wait", wait),
		)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		}
	}

	b.mu.Lock()
	b.refill(b.now())
	b.take(float64(n))
	b.mu.Unlock()

	return wait, nil
}

// TryAcquire takes n tokens only if they are available right now and no
// other caller is waiting.
func (b *TokenBucket) TryAcquire(n int) bool {
	if n <= 0 {
		return true
	}

	select {
	case b.gate <- struct{}{}:
	default:
		return false
	}
	defer func() { <-b.gate }()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(b.now())
	if b.tokens < float64(n) {
		return false
	}
	b.take(float64(n))
	return true
}

// Tokens returns the current token count after refill.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(b.now())
	return b.tokens
}

func (b *TokenBucket) refill(now time.Time) {
	// 时钟回拨视为无时间流逝
	if !now.After(b.last) {
		return
	}
	b.tokens += now.Sub(b.last).Seconds() * b.rate
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
	b.last = now
}

// take debits n tokens; requests larger than burst floor the bucket at zero.
func (b *TokenBucket) take(n float64) {
	b.tokens -= n
	if b.tokens < 0 {
		b.tokens = 0
	}
}
