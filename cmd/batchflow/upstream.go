package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/BaSui01/batchflow/config"
	"github.com/BaSui01/batchflow/types"
)

const upstreamName = "simulated"

// upstream 模拟一个带配额的远端 API：超出配额返回 429，
// 其余请求按 failureRate 随机拒绝单条消息。
type upstream struct {
	quota       *rate.Limiter
	failureRate float64
	latency     time.Duration

	mu  sync.Mutex
	rng *rand.Rand

	// 每次请求的 HTTP 状态回调，可为 nil
	observe func(status int)
}

func newUpstream(cfg config.UpstreamConfig, observe func(int)) *upstream {
	seed := uint64(cfg.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &upstream{
		quota:       rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		failureRate: cfg.FailureRate,
		latency:     cfg.Latency,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		observe:     observe,
	}
}

// Send 投递一条消息，返回消息 ID
func (u *upstream) Send(ctx context.Context, id int) (string, error) {
	if u.latency > 0 {
		timer := time.NewTimer(u.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if !u.quota.Allow() {
		u.record(http.StatusTooManyRequests)
		return "", types.NewError(types.ErrRateLimit, "API usage exceeded rate limit").
			WithHTTPStatus(http.StatusTooManyRequests).
			WithRetryable(true).
			WithUpstream(upstreamName)
	}

	if u.fail() {
		u.record(http.StatusBadRequest)
		return "", types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("message %d rejected by upstream", id)).
			WithHTTPStatus(http.StatusBadRequest).
			WithUpstream(upstreamName)
	}

	u.record(http.StatusOK)
	return fmt.Sprintf("msg-%06d", id), nil
}

func (u *upstream) fail() bool {
	if u.failureRate <= 0 {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rng.Float64() < u.failureRate
}

func (u *upstream) record(status int) {
	if u.observe != nil {
		u.observe(status)
	}
}
