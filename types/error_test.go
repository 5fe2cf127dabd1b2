package types

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrUpstreamError, "upstream failed").
		WithCause(root).
		WithHTTPStatus(502).
		WithRetryable(true).
		WithUpstream("zulip")

	if GetErrorCode(err) != ErrUpstreamError {
		t.Fatalf("expected code %s, got %s", ErrUpstreamError, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestError_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[TIMEOUT] attempt timed out", NewError(ErrTimeout, "attempt timed out").Error())
	assert.Equal(t, "[TIMEOUT] attempt timed out: context deadline exceeded",
		NewError(ErrTimeout, "attempt timed out").WithCause(context.DeadlineExceeded).Error())
}

func TestIsRateLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("429 too many requests"), false},
		{"rate limit code", NewError(ErrRateLimit, "slow down"), true},
		{"rate limited code", NewError(ErrRateLimited, "slow down"), true},
		{"quota", NewError(ErrQuotaExceeded, "quota"), true},
		{"http 429", NewError(ErrUpstreamError, "throttled").WithHTTPStatus(429), true},
		{"http 500", NewError(ErrUpstreamError, "boom").WithHTTPStatus(500), false},
		{"wrapped", fmt.Errorf("send: %w", NewError(ErrRateLimit, "x")), true},
		{"nested cause", NewError(ErrUpstreamError, "outer").WithCause(NewError(ErrRateLimit, "inner")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimit(tt.err))
		})
	}
}

func TestIsTimeout(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTimeout(NewError(ErrTimeout, "t")))
	assert.True(t, IsTimeout(NewError(ErrUpstreamTimeout, "t")))
	assert.True(t, IsTimeout(NewError(ErrUpstreamError, "outer").WithCause(NewError(ErrTimeout, "inner"))))
	assert.False(t, IsTimeout(NewError(ErrUpstreamError, "e")))
	assert.False(t, IsTimeout(context.DeadlineExceeded))
}

func TestIsRetryable_NonStructured(t *testing.T) {
	t.Parallel()

	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}

func TestFromHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    int
		code      ErrorCode
		retryable bool
	}{
		{401, ErrUnauthorized, false},
		{403, ErrForbidden, false},
		{400, ErrInvalidRequest, false},
		{404, ErrInvalidRequest, false},
		{429, ErrRateLimit, true},
		{408, ErrUpstreamTimeout, true},
		{504, ErrUpstreamTimeout, true},
		{500, ErrInternalError, true},
		{502, ErrServiceUnavailable, true},
		{503, ErrServiceUnavailable, true},
		{599, ErrUpstreamError, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := FromHTTPStatus(tt.status, "boom", "api")
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, tt.status, err.HTTPStatus)
			assert.Equal(t, "api", err.Upstream)
		})
	}

	assert.True(t, IsRateLimit(FromHTTPStatus(429, "slow down", "api")))
	assert.True(t, IsTimeout(FromHTTPStatus(504, "gateway", "api")))
}
