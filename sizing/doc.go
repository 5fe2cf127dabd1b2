// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package sizing 提供基于反馈的自适应批大小策略。

# 概述

在外部限流未知的情况下，批次过大容易触发限流或超时，过小又浪费吞吐。
AdaptiveSizer 根据最近的成功/失败反馈调整下一批的大小：

  - 连续成功达到 SuccessThreshold 次后按 IncreaseFactor 放大
  - 每次失败立即按 DecreaseFactor 缩小，限流类失败使用更陡的
    RateLimitDecreaseFactor
  - 结果始终夹在 [MinBatchSize, MaxBatchSize] 内

Statistics 仅用于观测，不参与策略决策。AdaptiveSizer 不是并发安全的，
由单个处理循环独占。
*/
package sizing
