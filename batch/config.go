package batch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/batchflow/retry"
	"github.com/BaSui01/batchflow/sizing"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("invalid batch config")

// Config 批处理引擎的调优参数，每次运行构造一次，运行期间不修改。
type Config struct {
	// 批大小边界
	InitialBatchSize int `yaml:"initial_batch_size" json:"initial_batch_size" env:"INITIAL_BATCH_SIZE"`
	MinBatchSize     int `yaml:"min_batch_size" json:"min_batch_size" env:"MIN_BATCH_SIZE"`
	MaxBatchSize     int `yaml:"max_batch_size" json:"max_batch_size" env:"MAX_BATCH_SIZE"`

	// 令牌桶参数
	MaxRequestsPerSecond float64 `yaml:"max_requests_per_second" json:"max_requests_per_second" env:"MAX_REQUESTS_PER_SECOND"`
	BurstCapacity        int     `yaml:"burst_capacity" json:"burst_capacity" env:"BURST_CAPACITY"`

	// 重试策略：MaxRetries 为每个批次的总尝试次数
	MaxRetries        int           `yaml:"max_retries" json:"max_retries" env:"MAX_RETRIES"`
	InitialBackoff    time.Duration `yaml:"initial_backoff" json:"initial_backoff" env:"INITIAL_BACKOFF"`
	MaxBackoff        time.Duration `yaml:"max_backoff" json:"max_backoff" env:"MAX_BACKOFF"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier" env:"BACKOFF_MULTIPLIER"`
	OperationTimeout  time.Duration `yaml:"operation_timeout" json:"operation_timeout" env:"OPERATION_TIMEOUT"`

	// 自适应批大小
	EnableAdaptiveSizing    bool    `yaml:"enable_adaptive_sizing" json:"enable_adaptive_sizing" env:"ENABLE_ADAPTIVE_SIZING"`
	SizeIncreaseFactor      float64 `yaml:"size_increase_factor" json:"size_increase_factor" env:"SIZE_INCREASE_FACTOR"`
	SizeDecreaseFactor      float64 `yaml:"size_decrease_factor" json:"size_decrease_factor" env:"SIZE_DECREASE_FACTOR"`
	RateLimitDecreaseFactor float64 `yaml:"rate_limit_decrease_factor" json:"rate_limit_decrease_factor" env:"RATE_LIMIT_DECREASE_FACTOR"`
	SuccessThreshold        int     `yaml:"success_threshold" json:"success_threshold" env:"SUCCESS_THRESHOLD"`

	// 进度报告节奏
	ReportInterval          time.Duration `yaml:"report_interval" json:"report_interval" env:"REPORT_INTERVAL"`
	EnableProgressCallbacks bool          `yaml:"enable_progress_callbacks" json:"enable_progress_callbacks" env:"ENABLE_PROGRESS_CALLBACKS"`
}

// DefaultConfig 返回合理的默认值
func DefaultConfig() Config {
	sz := sizing.DefaultConfig()
	rp := retry.DefaultPolicy()
	return Config{
		InitialBatchSize:        sz.InitialBatchSize,
		MinBatchSize:            sz.MinBatchSize,
		MaxBatchSize:            sz.MaxBatchSize,
		MaxRequestsPerSecond:    10,
		BurstCapacity:           20,
		MaxRetries:              rp.MaxAttempts,
		InitialBackoff:          rp.InitialBackoff,
		MaxBackoff:              rp.MaxBackoff,
		BackoffMultiplier:       rp.Multiplier,
		OperationTimeout:        30 * time.Second,
		EnableAdaptiveSizing:    sz.EnableAdaptiveSizing,
		SizeIncreaseFactor:      sz.IncreaseFactor,
		SizeDecreaseFactor:      sz.DecreaseFactor,
		RateLimitDecreaseFactor: sz.RateLimitDecreaseFactor,
		SuccessThreshold:        sz.SuccessThreshold,
		ReportInterval:          5 * time.Second,
		EnableProgressCallbacks: true,
	}
}

// Validate 校验配置一致性，返回包含全部问题的错误
func (c Config) Validate() error {
	var errs []string

	if c.MinBatchSize < 1 {
		errs = append(errs, "min_batch_size must be at least 1")
	}
	if c.MaxBatchSize < c.MinBatchSize {
		errs = append(errs, "max_batch_size must be >= min_batch_size")
	}
	if c.InitialBatchSize < c.MinBatchSize || c.InitialBatchSize > c.MaxBatchSize {
		errs = append(errs, "initial_batch_size must be within [min_batch_size, max_batch_size]")
	}
	if c.MaxRequestsPerSecond <= 0 {
		errs = append(errs, "max_requests_per_second must be positive")
	}
	if c.BurstCapacity < 1 {
		errs = append(errs, "burst_capacity must be at least 1")
	}
	if c.MaxRetries < 1 {
		errs = append(errs, "max_retries must be at least 1")
	}
	if c.InitialBackoff < 0 {
		errs = append(errs, "initial_backoff must not be negative")
	}
	if c.MaxBackoff < c.InitialBackoff {
		errs = append(errs, "max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier < 1 {
		errs = append(errs, "backoff_multiplier must be >= 1")
	}
	if c.OperationTimeout <= 0 {
		errs = append(errs, "operation_timeout must be positive")
	}
	if c.SizeIncreaseFactor < 1 {
		errs = append(errs, "size_increase_factor must be >= 1")
	}
	if c.SizeDecreaseFactor <= 0 || c.SizeDecreaseFactor > 1 {
		errs = append(errs, "size_decrease_factor must be within (0, 1]")
	}
	if c.RateLimitDecreaseFactor <= 0 || c.RateLimitDecreaseFactor > 1 {
		errs = append(errs, "rate_limit_decrease_factor must be within (0, 1]")
	}
	if c.SuccessThreshold < 1 {
		errs = append(errs, "success_threshold must be at least 1")
	}
	if c.ReportInterval < 0 {
		errs = append(errs, "report_interval must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

func (c Config) sizingConfig() sizing.Config {
	return sizing.Config{
		InitialBatchSize:        c.InitialBatchSize,
		MinBatchSize:            c.MinBatchSize,
		MaxBatchSize:            c.MaxBatchSize,
		EnableAdaptiveSizing:    c.EnableAdaptiveSizing,
		IncreaseFactor:          c.SizeIncreaseFactor,
		DecreaseFactor:          c.SizeDecreaseFactor,
		RateLimitDecreaseFactor: c.RateLimitDecreaseFactor,
		SuccessThreshold:        c.SuccessThreshold,
	}
}

func (c Config) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    c.MaxRetries,
		InitialBackoff: c.InitialBackoff,
		MaxBackoff:     c.MaxBackoff,
		Multiplier:     c.BackoffMultiplier,
	}.Normalize()
}
