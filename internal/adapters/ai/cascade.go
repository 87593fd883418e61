package ai

import (
	"context"
	"strings"

	"equitydesk/internal/metrics"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

// SwitchEvent describes one move to the next candidate model
type SwitchEvent struct {
	From   string
	To     string
	Reason string
	Err    error
}

// ModelCascade tries an ordered list of models, moving on only when a model
// fails with a switchable error. There is no waiting between attempts.
type ModelCascade struct {
	models []string
	log    *logger.Logger
}

// NewModelCascade builds a cascade over the given models, trimmed and de-duplicated
func NewModelCascade(models []string) *ModelCascade {
	seen := make(map[string]bool, len(models))
	ordered := make([]string, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		ordered = append(ordered, m)
	}
	return &ModelCascade{models: ordered, log: logger.Get().Named("model_cascade")}
}

// Models returns the candidates in order
func (c *ModelCascade) Models() []string {
	out := make([]string, len(c.models))
	copy(out, c.models)
	return out
}

// Run calls attempt with each model until one succeeds. It returns the model
// used last along with its error. onSwitch may be nil.
func (c *ModelCascade) Run(ctx context.Context, attempt func(ctx context.Context, model string) error, onSwitch func(SwitchEvent)) (string, error) {
	if len(c.models) == 0 {
		return "", errors.Wrap(errors.ErrMissingConfig, "no candidate models configured")
	}

	var tried []error
	for i, model := range c.models {
		err := attempt(ctx, model)
		if err == nil {
			return model, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model, err
		}

		reason := SwitchReason(err)
		if reason == "" {
			return model, err
		}
		tried = append(tried, errors.Wrapf(err, "model %s", model))
		metrics.RecordModelSwitch(model, reason)

		if i == len(c.models)-1 {
			c.log.WithRun(ctx).Warnw("every candidate model failed", "models", c.models, "reason", reason)
			return model, errors.Join(append([]error{errors.ErrModelsExhausted}, tried...)...)
		}

		next := c.models[i+1]
		c.log.WithRun(ctx).Infow("switching model", "from", model, "to", next, "reason", reason)
		if onSwitch != nil {
			onSwitch(SwitchEvent{From: model, To: next, Reason: reason, Err: err})
		}
	}
	// unreachable: the loop returns on its last iteration
	return "", errors.ErrModelsExhausted
}
