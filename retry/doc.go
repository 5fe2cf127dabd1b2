// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package retry 提供批次重试所需的退避策略与错误分类。

# 概述

  - Policy：指数退避，delay = min(InitialBackoff * Multiplier^attempt, MaxBackoff)
  - Kind：失败类别（Timeout / RateLimit / Generic）
  - Classifier：可插拔的错误分类函数，DefaultClassifier 优先识别结构化
    错误（types.Error 的错误码与 HTTP 429），最后才回退到错误文本中的
    "rate" / "429" 标记

# 使用方式

	p := retry.DefaultPolicy()
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
	    err := call()
	    if err == nil {
	        break
	    }
	    if retry.DefaultClassifier(err) == retry.KindRateLimit {
	        // 缩小批次
	    }
	    if err := p.Wait(ctx, attempt); err != nil {
	        return err
	    }
	}
*/
package retry
