package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equitydesk/pkg/errors"
)

func TestCascadeSwitchesOnRateLimit(t *testing.T) {
	cascade := NewModelCascade([]string{"a/one", "b/two", "a/one", " ", "c/three"})
	assert.Equal(t, []string{"a/one", "b/two", "c/three"}, cascade.Models())

	var attempts []string
	var switches []SwitchEvent
	model, err := cascade.Run(context.Background(), func(_ context.Context, model string) error {
		attempts = append(attempts, model)
		if model == "a/one" {
			return errors.Wrap(errors.ErrRateLimitExceeded, "429")
		}
		return nil
	}, func(ev SwitchEvent) { switches = append(switches, ev) })

	require.NoError(t, err)
	assert.Equal(t, "b/two", model)
	assert.Equal(t, []string{"a/one", "b/two"}, attempts)
	require.Len(t, switches, 1)
	assert.Equal(t, SwitchEvent{From: "a/one", To: "b/two", Reason: ReasonRateLimit, Err: switches[0].Err}, switches[0])
}

func TestCascadeStopsOnNonSwitchableError(t *testing.T) {
	cascade := NewModelCascade([]string{"a/one", "b/two"})
	boom := errors.New("invalid api key")

	model, err := cascade.Run(context.Background(), func(context.Context, string) error { return boom }, nil)
	assert.Equal(t, "a/one", model)
	assert.ErrorIs(t, err, boom)
}

func TestCascadeExhausted(t *testing.T) {
	cascade := NewModelCascade([]string{"a/one", "b/two"})

	calls := 0
	model, err := cascade.Run(context.Background(), func(context.Context, string) error {
		calls++
		return errors.New("No endpoints found matching your data policy")
	}, nil)

	assert.Equal(t, 2, calls)
	assert.Equal(t, "b/two", model)
	assert.True(t, errors.Is(err, errors.ErrModelsExhausted))
	assert.Contains(t, err.Error(), "model a/one")
}

func TestCascadeWithoutModels(t *testing.T) {
	_, err := NewModelCascade(nil).Run(context.Background(), func(context.Context, string) error { return nil }, nil)
	assert.True(t, errors.Is(err, errors.ErrMissingConfig))
}

func TestCascadeDoesNotSwitchAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cascade := NewModelCascade([]string{"a/one", "b/two"})

	calls := 0
	_, err := cascade.Run(ctx, func(context.Context, string) error {
		calls++
		cancel()
		return errors.Wrap(errors.ErrRateLimitExceeded, "429")
	}, nil)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSwitchReason(t *testing.T) {
	assert.Equal(t, ReasonRateLimit, SwitchReason(errors.New("litellm.RateLimitError: upstream")))
	assert.Equal(t, ReasonRateLimit, SwitchReason(errors.New(`provider said {"code":429}`)))
	assert.Equal(t, ReasonPolicy, SwitchReason(errors.New("Free model publication is disabled")))
	assert.Equal(t, "", SwitchReason(errors.New("context length exceeded")))
	assert.Equal(t, "", SwitchReason(nil))
}
