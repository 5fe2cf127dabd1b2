package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Upstream error codes
const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrForbidden          ErrorCode = "FORBIDDEN"
	ErrRateLimit          ErrorCode = "RATE_LIMIT"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"
	ErrUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"
	ErrTimeout            ErrorCode = "TIMEOUT"
	ErrUpstreamError      ErrorCode = "UPSTREAM_ERROR"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Engine error codes
const (
	ErrCanceled       ErrorCode = "CANCELED"
	ErrInvalidConfig  ErrorCode = "INVALID_CONFIG"
	ErrOperationPanic ErrorCode = "OPERATION_PANIC"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Upstream   string    `json:"upstream,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithUpstream sets the name of the remote service that produced the error.
func (e *Error) WithUpstream(upstream string) *Error {
	e.Upstream = upstream
	return e
}

// FromHTTPStatus 将上游 HTTP 状态码映射为带有合适重试标记的 Error
func FromHTTPStatus(status int, msg, upstream string) *Error {
	e := NewError(ErrUpstreamError, msg).WithHTTPStatus(status).WithUpstream(upstream)
	switch {
	case status == http.StatusUnauthorized:
		e.Code = ErrUnauthorized
	case status == http.StatusForbidden:
		e.Code = ErrForbidden
	case status == http.StatusTooManyRequests:
		e.Code = ErrRateLimit
		e.Retryable = true
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		e.Code = ErrUpstreamTimeout
		e.Retryable = true
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway:
		e.Code = ErrServiceUnavailable
		e.Retryable = true
	case status == http.StatusInternalServerError:
		e.Code = ErrInternalError
		e.Retryable = true
	case status >= 500:
		e.Retryable = true
	case status >= 400:
		e.Code = ErrInvalidRequest
	}
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the outermost error code from an error chain.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRateLimit reports whether any structured error in the chain signals
// upstream throttling, either by code or by HTTP 429.
func IsRateLimit(err error) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		switch e.Code {
		case ErrRateLimit, ErrRateLimited, ErrQuotaExceeded:
			return true
		}
		if e.HTTPStatus == http.StatusTooManyRequests {
			return true
		}
		err = e.Cause
	}
	return false
}

// IsTimeout reports whether any structured error in the chain is a timeout.
func IsTimeout(err error) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == ErrTimeout || e.Code == ErrUpstreamTimeout {
			return true
		}
		err = e.Cause
	}
	return false
}
