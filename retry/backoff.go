package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy 定义批次级重试策略
type Policy struct {
	MaxAttempts    int           // 每个批次的最大尝试次数（含首次）
	InitialBackoff time.Duration // 首次重试前的等待
	MaxBackoff     time.Duration // 退避上限
	Multiplier     float64       // 指数退避倍数
}

// DefaultPolicy 返回默认的重试策略
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     60 * time.Second,
		Multiplier:     2.0,
	}
}

// Normalize 修正非法参数，返回可直接使用的策略
func (p Policy) Normalize() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialBackoff < 0 {
		p.InitialBackoff = 0
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.Multiplier < 1.0 {
		p.Multiplier = 1.0
	}
	return p
}

// Delay 计算第 attempt 次（从 0 开始）失败后的等待时间
func (p Policy) Delay(attempt int) time.Duration {
	if p.InitialBackoff <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt))
	if math.IsInf(delay, 0) || delay > float64(p.MaxBackoff) {
		return p.MaxBackoff
	}
	return time.Duration(delay)
}

// IsFinal 判断 attempt 是否为最后一次尝试
func (p Policy) IsFinal(attempt int) bool {
	return attempt >= p.MaxAttempts-1
}

// Wait 按 Delay(attempt) 等待，同时监听 context 取消
func (p Policy) Wait(ctx context.Context, attempt int) error {
	return Sleep(ctx, p.Delay(attempt))
}

// Sleep 等待 d，context 取消时提前返回
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("backoff canceled: %w", err)
		}
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
