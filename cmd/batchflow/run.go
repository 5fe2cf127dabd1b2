package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/BaSui01/batchflow/batch"
	"github.com/BaSui01/batchflow/config"
	"github.com/BaSui01/batchflow/internal/metrics"
	"github.com/BaSui01/batchflow/internal/server"
	"github.com/BaSui01/batchflow/internal/telemetry"
	"github.com/BaSui01/batchflow/progress"
	"github.com/BaSui01/batchflow/types"
)

// =============================================================================
// 🚀 run 命令
// =============================================================================

func runCommand(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	items := fs.Int("items", -1, "Number of items to process")
	failureRate := fs.Float64("failure-rate", -1, "Per-item failure probability")
	upstreamRPS := fs.Float64("upstream-rps", 0, "Upstream quota in requests per second")
	exposeMetrics := fs.Bool("metrics", false, "Expose Prometheus metrics")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// 命令行参数优先于配置文件与环境变量
	if *items >= 0 {
		cfg.Upstream.Items = *items
	}
	if *failureRate >= 0 {
		cfg.Upstream.FailureRate = *failureRate
	}
	if *upstreamRPS > 0 {
		cfg.Upstream.RequestsPerSecond = *upstreamRPS
	}
	if *exposeMetrics {
		cfg.Metrics.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting batchflow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := execute(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return 1
	}

	printSummary(os.Stdout, res)
	if res.Status == batch.StatusFailed {
		return 1
	}
	return 0
}

// execute 组装遥测、指标、模拟上游与批处理器，并完成一次运行
func execute(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg *prometheus.Registry) (*batch.Result[int, string], error) {
	providers, err := telemetry.Init(ctx, cfg.Telemetry, Version, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(cfg.Metrics.Namespace, reg, logger)

	if cfg.Metrics.Enabled {
		srvCfg := server.DefaultConfig()
		srvCfg.Addr = cfg.Metrics.Addr
		srvCfg.Path = cfg.Metrics.Path
		mgr := server.NewMetricsManager(reg, srvCfg, logger)
		if err := mgr.Start(); err != nil {
			return nil, fmt.Errorf("start metrics server: %w", err)
		}
		defer func() { _ = mgr.Shutdown(context.Background()) }()
		logger.Info("metrics exposed", zap.String("url", mgr.URL()))
	}

	processor, err := batch.New[int, string](cfg.Batch,
		batch.WithLogger(logger),
		batch.WithRecorder(collector),
		batch.WithTracer(providers.Tracer("github.com/BaSui01/batchflow/batch")),
	)
	if err != nil {
		return nil, err
	}

	up := newUpstream(cfg.Upstream, collector.RecordUpstreamRequest)
	op := batch.ConcurrentOperation(up.Send, cfg.Upstream.Concurrency, nil)

	items := make([]int, cfg.Upstream.Items)
	for i := range items {
		items[i] = i + 1
	}

	res := processor.Process(ctx, items, op, func(r progress.Report) {
		logger.Info("progress",
			zap.String("summary", r.String()),
			zap.Float64("percent", r.PercentComplete),
			zap.Float64("rate", r.CurrentRate),
		)
	})
	return res, nil
}

// printSummary 输出运行摘要，失败按错误码聚合
func printSummary(w io.Writer, res *batch.Result[int, string]) {
	fmt.Fprintf(w, "Run %s\n", res.RunID)
	fmt.Fprintf(w, "  Status:        %s\n", res.Status)
	fmt.Fprintf(w, "  Processed:     %d/%d (%.1f%%)\n", res.ProcessedItems, res.TotalItems, res.SuccessRate()*100)
	fmt.Fprintf(w, "  Failed:        %d\n", res.FailedCount())
	fmt.Fprintf(w, "  Batches:       %d (avg size %.1f, %d retried)\n", res.TotalBatches, res.AvgBatchSize, res.RetryCount)
	fmt.Fprintf(w, "  Duration:      %s\n", res.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "  Effective rate: %.1f items/s\n", res.EffectiveRate)

	if len(res.FailedItems) == 0 {
		return
	}
	byCode := make(map[types.ErrorCode]int)
	for _, f := range res.FailedItems {
		code := types.GetErrorCode(f.Err)
		if code == "" {
			code = "UNKNOWN"
		}
		byCode[code]++
	}
	fmt.Fprintln(w, "  Failures by code:")
	for _, code := range slices.Sorted(maps.Keys(byCode)) {
		fmt.Fprintf(w, "    %-20s %d\n", code, byCode[code])
	}
}
