// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package progress 累计批处理进度并生成带吞吐量与 ETA 的快照报告。

# 概述

Tracker 记录已处理/失败条目数与批次数，每次 Update 会把瞬时吞吐量
（累计处理数 / 已用秒数）放入长度为 10 的滑动窗口，生成报告时取窗口
平均值作为当前速率，以平滑抖动。

ETA 仅在速率大于 0 且仍有剩余工作时给出，否则为 nil（缺省而非 0）。

# 报告节奏

ShouldReport 是纯粹的墙钟闸门：距离上一次生成报告至少过去 interval
才返回 true，调用方据此决定是否生成报告，不与批次耗时耦合。

Tracker 不是并发安全的，由单个处理循环独占。
*/
package progress
