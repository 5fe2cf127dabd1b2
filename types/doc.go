// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 batchflow 全局共享的错误类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包。batch、retry、ratelimit
等上层模块通过 Error / ErrorCode 描述失败原因，调用方可以用
errors.As 取回结构化信息，而不必解析错误字符串。

# 核心类型

  - ErrorCode: 统一错误码（TIMEOUT、RATE_LIMIT、UPSTREAM_ERROR 等）
  - Error: 结构化错误，含 HTTPStatus、Retryable、Upstream 与 Cause

# 使用方式

	err := types.NewError(types.ErrRateLimit, "too many requests").
	    WithHTTPStatus(429).
	    WithRetryable(true)

	if types.IsRateLimit(err) {
	    // 缩小批次
	}
*/
package types
