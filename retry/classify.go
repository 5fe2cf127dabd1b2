package retry

import (
	"context"
	"errors"
	"strings"

	"github.com/BaSui01/batchflow/types"
)

// Kind 失败类别
type Kind int

const (
	// KindGeneric 其他错误：重试，耗尽后转为逐条失败
	KindGeneric Kind = iota
	// KindTimeout 单次尝试超时：重试，不影响批大小
	KindTimeout
	// KindRateLimit 上游限流：重试并大幅缩小批次
	KindRateLimit
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "generic"
	}
}

// Classifier 将操作返回的错误映射为失败类别
type Classifier func(err error) Kind

// rateLimitMarkers 兼容旧行为：非结构化错误按文本匹配
var rateLimitMarkers = []string{"rate", "429"}

// DefaultClassifier 默认分类器。
// 顺序：超时 → 结构化限流错误 → 文本标记 → 其他。
func DefaultClassifier(err error) Kind {
	if err == nil {
		return KindGeneric
	}
	if errors.Is(err, context.DeadlineExceeded) || types.IsTimeout(err) {
		return KindTimeout
	}
	if types.IsRateLimit(err) {
		return KindRateLimit
	}
	if MatchesRateLimitText(err) {
		return KindRateLimit
	}
	return KindGeneric
}

// StructuredClassifier 只识别结构化错误，不做文本匹配
func StructuredClassifier(err error) Kind {
	if err == nil {
		return KindGeneric
	}
	if errors.Is(err, context.DeadlineExceeded) || types.IsTimeout(err) {
		return KindTimeout
	}
	if types.IsRateLimit(err) {
		return KindRateLimit
	}
	return KindGeneric
}

// MatchesRateLimitText 检查错误文本是否包含限流标记（不区分大小写）
func MatchesRateLimitText(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
