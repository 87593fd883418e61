package shared

import (
	"context"
	"time"

	"equitydesk/internal/metrics"
	"equitydesk/pkg/logger"
)

// wrapWithStats records tool latency and outcome in Prometheus and logs the call
func wrapWithStats(name string, fn ToolFunc) ToolFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		start := time.Now()
		result, err := fn(ctx, args)
		duration := time.Since(start)

		metrics.RecordToolExecution(name, duration, err)

		log := logger.Get().WithRun(ctx).With("tool", name, "duration_ms", duration.Milliseconds())
		if meta, ok := MetadataFromContext(ctx); ok {
			log = log.With("agent", meta.Agent, "symbol", meta.Symbol)
		}
		if err != nil {
			log.Warnw("tool execution failed", "error", err)
		} else {
			log.Debugw("tool executed")
		}

		return result, err
	}
}
