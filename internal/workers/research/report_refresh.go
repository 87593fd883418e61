package research

import (
	"context"
	"time"

	"equitydesk/internal/adapters/config"
	"equitydesk/internal/agents/workflows"
	"equitydesk/internal/domain/run"
	researchsvc "equitydesk/internal/services/research"
	"equitydesk/internal/workers"
	"equitydesk/pkg/errors"
)

// Executor runs one research request
type Executor interface {
	Execute(ctx context.Context, req researchsvc.Request, sink workflows.ProgressSink) (*researchsvc.Outcome, error)
}

// Locker guards against two instances refreshing the same ticker
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// ReportRefresh re-runs the configured company on a fixed interval so the
// report on disk and the run history stay current
type ReportRefresh struct {
	*workers.BaseWorker
	executor Executor
	target   func() config.RunConfig
	locker   Locker
}

// NewReportRefresh creates the refresh worker. locker may be nil when Redis
// is not configured; the refresh then runs unguarded.
func NewReportRefresh(
	executor Executor,
	target func() config.RunConfig,
	locker Locker,
	interval time.Duration,
	enabled bool,
) *ReportRefresh {
	return &ReportRefresh{
		BaseWorker: workers.NewBaseWorker("report_refresh", interval, enabled),
		executor:   executor,
		target:     target,
		locker:     locker,
	}
}

// Run executes one scheduled research run
func (rr *ReportRefresh) Run(ctx context.Context) error {
	rc := rr.target()
	if rc.Ticker == "" {
		rr.Log().Warn("Report refresh: no company configured, skipping")
		return nil
	}

	if rr.locker != nil {
		key := "report_refresh:" + rc.Ticker
		acquired, err := rr.locker.AcquireLock(ctx, key, rr.Interval())
		if err != nil {
			return errors.Wrap(err, "failed to acquire refresh lock")
		}
		if !acquired {
			rr.Log().Infow("Report refresh: another instance holds the lock", "ticker", rc.Ticker)
			return nil
		}
		defer func() {
			// Released on a fresh context so shutdown does not leave the lock behind
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := rr.locker.ReleaseLock(releaseCtx, key); err != nil {
				rr.Log().Warnw("Failed to release refresh lock", "ticker", rc.Ticker, "error", err)
			}
		}()
	}

	rr.Log().Infow("Report refresh: starting", "ticker", rc.Ticker)

	outcome, err := rr.executor.Execute(ctx, researchsvc.Request{Run: rc, Trigger: run.TriggerScheduled}, nil)
	if err != nil {
		return errors.Wrapf(err, "scheduled run for %s failed", rc.Ticker)
	}

	rr.Log().Infow("Report refresh: complete",
		"ticker", rc.Ticker,
		"model", outcome.Model,
		"runtime", outcome.Runtime,
	)
	return nil
}
