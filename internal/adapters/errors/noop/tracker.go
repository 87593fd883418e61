package noop

import (
	"context"

	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

// Tracker stands in when no Sentry DSN is configured. Captured errors go to
// the debug log so they stay visible during local runs.
type Tracker struct {
	log *logger.Logger
}

var _ errors.Tracker = (*Tracker)(nil)

func New(log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Tracker{log: log.Named("error_tracker")}
}

func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	if err == nil {
		return nil
	}
	runID, _ := errors.RunIDFrom(ctx)
	t.log.Debugw("Captured error", "error", err, "run_id", runID, "tags", tags)
	return nil
}

func (t *Tracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	t.log.Debugw("Captured message", "message", message, "level", level, "tags", tags)
	return nil
}

// Breadcrumbs only make sense attached to a remote event.
func (t *Tracker) AddBreadcrumb(context.Context, string, string, errors.Level, map[string]interface{}) {}

func (t *Tracker) Flush(context.Context) error { return nil }
