package noop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"equitydesk/pkg/errors"
)

func TestTrackerNeverFails(t *testing.T) {
	tracker := New(nil)
	ctx := errors.WithRunID(context.Background(), "run-1")

	assert.NoError(t, tracker.CaptureError(ctx, errors.ErrUnavailable, map[string]string{"stage": "news"}))
	assert.NoError(t, tracker.CaptureError(ctx, nil, nil))
	assert.NoError(t, tracker.CaptureMessage(ctx, "models exhausted", errors.LevelWarning, nil))
	assert.NotPanics(t, func() { tracker.AddBreadcrumb(ctx, "step", "workflow", errors.LevelInfo, nil) })
	assert.NoError(t, tracker.Flush(ctx))
}
