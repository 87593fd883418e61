package workers

import (
	"context"
	"sync"
	"time"

	"equitydesk/pkg/logger"
)

// Worker is a background job driven by the Scheduler.
type Worker interface {
	Name() string
	// Run does one pass. With a zero Interval it is started once and is
	// expected to block until ctx is cancelled.
	Run(ctx context.Context) error
	Interval() time.Duration
	Enabled() bool
}

// Status is the run history of one worker since process start.
type Status struct {
	Enabled      bool      `json:"enabled"`
	Runs         int64     `json:"runs"`
	Failures     int64     `json:"failures"`
	LastRun      time.Time `json:"last_run,omitzero"`
	LastError    string    `json:"last_error,omitempty"`
	MeanDuration string    `json:"mean_duration,omitempty"`
}

// FailureRate is the share of runs that returned an error.
func (s Status) FailureRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Runs)
}

// Observed is implemented by workers whose runs the scheduler records.
// Embedding *BaseWorker provides it.
type Observed interface {
	Worker
	Status() Status
	Observe(took time.Duration, err error)
}

// BaseWorker carries the name, schedule and run history shared by workers.
type BaseWorker struct {
	name     string
	interval time.Duration
	enabled  bool
	log      *logger.Logger

	mu      sync.Mutex
	status  Status
	busyFor time.Duration
}

func NewBaseWorker(name string, interval time.Duration, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		interval: interval,
		enabled:  enabled,
		log:      logger.Get().Named("worker").With("worker", name),
	}
}

func (w *BaseWorker) Name() string            { return w.name }
func (w *BaseWorker) Interval() time.Duration { return w.interval }
func (w *BaseWorker) Enabled() bool           { return w.enabled }
func (w *BaseWorker) Log() *logger.Logger     { return w.log }

// Status returns a copy of the run history.
func (w *BaseWorker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.status
	s.Enabled = w.enabled
	if s.Runs > 0 {
		s.MeanDuration = (w.busyFor / time.Duration(s.Runs)).Round(time.Millisecond).String()
	}
	return s
}

// Observe records one finished run. A success clears the last error.
func (w *BaseWorker) Observe(took time.Duration, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.status.Runs++
	w.status.LastRun = time.Now()
	w.busyFor += took
	w.status.LastError = ""
	if err != nil {
		w.status.Failures++
		w.status.LastError = err.Error()
	}
}
