// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package ratelimit 提供令牌桶限流原语，是批处理引擎的背压点。

# 概述

TokenBucket 以固定速率持续补充令牌，容量上限为 burst，允许短时突发。
每次派发批次前调用 Acquire 扣减令牌；令牌不足时调用方被挂起，直到
补足所需的差额。

# 主要能力

  - Acquire：阻塞式获取，返回实际等待时长，支持 context 取消
  - TryAcquire：非阻塞尝试
  - Tokens：当前令牌数快照（诊断用）

# 并发语义

补充、等待与扣减位于同一临界区内，多个处理器可以共享同一个
TokenBucket 实例。临界区锁本身可被 context 取消，排队中的调用方
不会无限期卡住已经取消的请求。

# 使用方式

	limiter := ratelimit.New(10, 20)
	waited, err := limiter.Acquire(ctx, 1)
*/
package ratelimit
