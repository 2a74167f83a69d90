// Package observer defines logging and metrics hooks for sandbox execution.
package observer

import (
	"context"
	"time"

	"javaexec/pkg/utils/logger"

	"go.uber.org/zap"
)

// MetricsRecorder records sandbox metrics.
type MetricsRecorder interface {
	ObserveCompile(ctx context.Context, toolchainID string, status string, elapsed time.Duration)
	ObserveRun(ctx context.Context, toolchainID string, status string, exitCode int, elapsed time.Duration, truncated bool)
}

// NoopMetricsRecorder is a default recorder that does nothing.
type NoopMetricsRecorder struct{}

func (NoopMetricsRecorder) ObserveCompile(ctx context.Context, toolchainID string, status string, elapsed time.Duration) {
}

func (NoopMetricsRecorder) ObserveRun(ctx context.Context, toolchainID string, status string, exitCode int, elapsed time.Duration, truncated bool) {
}

// LogMetricsRecorder emits one structured log line per phase.
type LogMetricsRecorder struct{}

func (LogMetricsRecorder) ObserveCompile(ctx context.Context, toolchainID string, status string, elapsed time.Duration) {
	logger.Info(ctx, "compile finished",
		zap.String("toolchain", toolchainID),
		zap.String("status", status),
		zap.Duration("elapsed", elapsed),
	)
}

func (LogMetricsRecorder) ObserveRun(ctx context.Context, toolchainID string, status string, exitCode int, elapsed time.Duration, truncated bool) {
	logger.Info(ctx, "run finished",
		zap.String("toolchain", toolchainID),
		zap.String("status", status),
		zap.Int("exit_code", exitCode),
		zap.Duration("elapsed", elapsed),
		zap.Bool("truncated", truncated),
	)
}
