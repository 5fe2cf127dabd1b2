package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/batchflow/testutil"
)

func newFakeBucket(rate float64, burst int) (*TokenBucket, *testutil.FakeClock) {
	clk := testutil.NewFakeClock(time.Unix(1_700_000_000, 0))
	return New(rate, burst, WithClock(clk.Now)), clk
}

func TestNew_Defaults(t *testing.T) {
	b := New(0, 0)
	assert.Equal(t, 1.0, b.Rate())
	assert.Equal(t, 1, b.Burst())
	assert.InDelta(t, 1.0, b.Tokens(), 1e-9)
}

func TestTokenBucket_StartsFull(t *testing.T) {
	b, _ := newFakeBucket(10, 20)
	assert.InDelta(t, 20.0, b.Tokens(), 1e-9)
}

func TestTokenBucket_AcquireWithinBurstDoesNotWait(t *testing.T) {
	b, _ := newFakeBucket(10, 20)

	waited, err := b.Acquire(context.Background(), 5)
	require.NoError(t, err)
	assert.Zero(t, waited)
	assert.InDelta(t, 15.0, b.Tokens(), 1e-9)
}

func TestTokenBucket_RefillCappedAtBurst(t *testing.T) {
	b, clk := newFakeBucket(10, 20)

	require.True(t, b.TryAcquire(20))
	assert.InDelta(t, 0.0, b.Tokens(), 1e-9)

	clk.Advance(500 * time.Millisecond)
	assert.InDelta(t, 5.0, b.Tokens(), 1e-9)

	clk.Advance(time.Hour)
	assert.InDelta(t, 20.0, b.Tokens(), 1e-9)
}

func TestTokenBucket_ClockGoingBackwardsIsIgnored(t *testing.T) {
	b, clk := newFakeBucket(10, 20)
	require.True(t, b.TryAcquire(10))

	clk.Advance(-time.Minute)
	assert.InDelta(t, 10.0, b.Tokens(), 1e-9)
}

func TestTokenBucket_TryAcquire(t *testing.T) {
	b, clk := newFakeBucket(1, 2)

	assert.True(t, b.TryAcquire(2))
	assert.False(t, b.TryAcquire(1))

	clk.Advance(time.Second)
	assert.True(t, b.TryAcquire(1))
	assert.True(t, b.TryAcquire(0))
}

func TestTokenBucket_AcquireBeyondBurstWaitsForDeficit(t *testing.T) {
	b := New(10, 20)

	start := time.Now()
	waited, err := b.Acquire(context.Background(), 25)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.InDelta(t, 500*time.Millisecond, waited, float64(20*time.Millisecond))
	assert.GreaterOrEqual(t, elapsed, 490*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)

	tokens := b.Tokens()
	assert.GreaterOrEqual(t, tokens, 0.0)
	assert.LessOrEqual(t, tokens, 20.0)
}

func TestTokenBucket_AcquireWaitsWhenEmpty(t *testing.T) {
	b := New(100, 1)

	_, err := b.Acquire(context.Background(), 1)
	require.NoError(t, err)

	start := time.Now()
	waited, err := b.Acquire(context.Background(), 1)
	require.NoError(t, err)
	assert.Greater(t, waited, time.Duration(0))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestTokenBucket_AcquireCanceled(t *testing.T) {
	b := New(1, 1)
	require.True(t, b.TryAcquire(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Acquire(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenBucket_AcquireNonPositive(t *testing.T) {
	b := New(1, 1)
	waited, err := b.Acquire(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, waited)
	assert.InDelta(t, 1.0, b.Tokens(), 1e-9)
}

func TestTokenBucket_ConcurrentAcquireNeverOverspends(t *testing.T) {
	b := New(200, 10)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const callers = 8
	const perCaller = 5

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perCaller; j++ {
				_, err := b.Acquire(ctx, 1)
				assert.NoError(t, err)
				tokens := b.Tokens()
				assert.GreaterOrEqual(t, tokens, 0.0)
				assert.LessOrEqual(t, tokens, 10.0)
			}
		}()
	}
	wg.Wait()

	// 40 tokens with 10 in the bucket need at least 30/200 s of refill.
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
}

func TestWithClock_NilKeepsDefault(t *testing.T) {
	b := New(1, 1, WithClock(nil))
	require.NotNil(t, b.now)
	assert.InDelta(t, 1.0, b.Tokens(), 1e-9)
}

func TestTokenBucket_LogsWaits(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := New(1000, 1, WithLogger(zap.New(core)))

	_, err := b.Acquire(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("waiting for tokens").Len(), "no wait while tokens are available")

	_, err = b.Acquire(context.Background(), 2)
	require.NoError(t, err)
	entries := logs.FilterMessage("waiting for tokens").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ContextMap()["requested"])
}
