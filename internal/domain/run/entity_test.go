package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunDuration(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	r := &Run{StartedAt: start, Status: StatusRunning}

	assert.Equal(t, 5*time.Second, r.Duration(start.Add(5*time.Second)))

	r.Finish(StatusCompleted, start.Add(90*time.Second))
	assert.Equal(t, StatusCompleted, r.Status)
	assert.Equal(t, 90*time.Second, r.Duration(start.Add(time.Hour)))
}
