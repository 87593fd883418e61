package bootstrap

import (
	"context"
	"sync"
	"time"

	"equitydesk/internal/adapters/kafka"
	pgclient "equitydesk/internal/adapters/postgres"
	redisclient "equitydesk/internal/adapters/redis"
	"equitydesk/internal/api"
	"equitydesk/internal/workers"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 150 * time.Second,
	}
}

// Shutdown performs coordinated cleanup of all components in order:
// 1. No new requests accepted
// 2. Workers finish their current run
// 3. Kafka consumer unblocks before waiting for goroutines
// 4. Producer closes after the last report event
// 5. Errors and logs flushed
// 6. Database connections last
// Nil components are skipped, so one-shot CLI runs reuse the same path.
func (l *Lifecycle) Shutdown(
	wg *sync.WaitGroup,
	httpServer *api.Server,
	workerScheduler *workers.Scheduler,
	kafkaProducer *kafka.Producer,
	triggerConsumer *kafka.Consumer,
	pgClient *pgclient.Client,
	redisClient *redisclient.Client,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	// ========================================
	// Step 1: Stop HTTP Server
	// ========================================
	if httpServer != nil {
		log.Info("[1/7] Stopping HTTP server...")
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		if err := httpServer.Shutdown(httpCtx); err != nil {
			log.Errorw("HTTP server shutdown failed", "error", err)
		}
		httpCancel()
	}

	// ========================================
	// Step 2: Stop Background Workers
	// A refresh run caught mid-flight gets the scheduler's own timeout
	// ========================================
	if workerScheduler != nil && workerScheduler.IsRunning() {
		log.Info("[2/7] Stopping background workers...")
		if err := workerScheduler.Stop(); err != nil {
			log.Errorw("Workers shutdown failed", "error", err)
		} else {
			log.Info("✓ Workers stopped")
		}
	}

	// ========================================
	// Step 3: Close Kafka Consumer
	// ========================================
	if triggerConsumer != nil {
		log.Info("[3/7] Closing Kafka trigger consumer...")
		if err := triggerConsumer.Close(); err != nil {
			log.Errorw("Kafka consumer close failed", "consumer", "triggers", "error", err)
		}
	}

	// ========================================
	// Step 4: Wait for Goroutines
	// ========================================
	log.Info("[4/7] Waiting for goroutines...")
	l.waitForGoroutines(wg, 5*time.Second, log)

	// ========================================
	// Step 5: Close Kafka Producer
	// ========================================
	if kafkaProducer != nil {
		log.Info("[5/7] Closing Kafka producer...")
		if err := kafkaProducer.Close(); err != nil {
			log.Errorw("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	// ========================================
	// Step 6: Flush Error Tracker and Logs
	// ========================================
	log.Info("[6/7] Flushing error tracker and logs...")
	l.flushErrorTracker(shutdownCtx, errorTracker, log)
	if err := logger.Sync(); err != nil {
		// stderr/stdout sinks report EINVAL on sync; nothing to do about it
		log.Debugw("Log sync completed with warnings", "error", err)
	}

	// ========================================
	// Step 7: Close Database Connections
	// ========================================
	log.Info("[7/7] Closing database connections...")
	l.closeDatabases(pgClient, redisClient, log)

	log.Info("✅ Graceful shutdown complete")
}

// waitForGoroutines waits for all goroutines with a timeout
func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("✓ All goroutines finished")
	case <-time.After(timeout):
		log.Warnw("⚠ Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Errorw("Error tracker flush failed", "error", err)
	}
}

func (l *Lifecycle) closeDatabases(pgClient *pgclient.Client, redisClient *redisclient.Client, log *logger.Logger) {
	var dbErrors []error

	if pgClient != nil {
		if err := pgClient.Close(); err != nil {
			dbErrors = append(dbErrors, errors.Wrap(err, "postgres"))
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			dbErrors = append(dbErrors, errors.Wrap(err, "redis"))
		}
	}

	if len(dbErrors) > 0 {
		log.Errorw("Database close errors", "error", errors.Join(dbErrors...))
	} else {
		log.Info("✓ Database connections closed")
	}
}
