package research

import (
	"context"

	"github.com/segmentio/kafka-go"

	"equitydesk/internal/adapters/config"
	kafkaadapter "equitydesk/internal/adapters/kafka"
	"equitydesk/internal/agents/workflows"
	"equitydesk/internal/domain/run"
	researchsvc "equitydesk/internal/services/research"
	"equitydesk/internal/workers"
)

// TriggerRunner runs a trigger payload over the configured defaults
type TriggerRunner interface {
	RunTrigger(ctx context.Context, base config.RunInput, payload []byte, trigger run.Trigger, sink workflows.ProgressSink) (*researchsvc.Outcome, error)
}

// MessageSource delivers trigger messages until ctx is cancelled
type MessageSource interface {
	Consume(ctx context.Context, handler kafkaadapter.MessageHandler) error
}

// TriggerConsumer starts a research run for every message on the trigger
// topic. It is long-running: the scheduler starts it once.
type TriggerConsumer struct {
	*workers.BaseWorker
	runner   TriggerRunner
	source   MessageSource
	defaults func() config.RunInput
}

// NewTriggerConsumer creates the trigger consumer worker
func NewTriggerConsumer(runner TriggerRunner, source MessageSource, defaults func() config.RunInput, enabled bool) *TriggerConsumer {
	return &TriggerConsumer{
		BaseWorker: workers.NewBaseWorker("trigger_consumer", 0, enabled),
		runner:     runner,
		source:     source,
		defaults:   defaults,
	}
}

// Run consumes triggers until ctx is cancelled
func (tc *TriggerConsumer) Run(ctx context.Context) error {
	return tc.source.Consume(ctx, tc.Handle)
}

// Handle runs one trigger message. Rejected payloads are logged and dropped
// since redelivering them cannot succeed.
func (tc *TriggerConsumer) Handle(ctx context.Context, msg kafka.Message) error {
	outcome, err := tc.runner.RunTrigger(ctx, tc.defaults(), msg.Value, run.TriggerPayload, nil)
	if err != nil {
		if researchsvc.IsValidation(err) {
			tc.Log().Warnw("Dropping invalid trigger", "key", string(msg.Key), "error", err)
			return nil
		}
		return err
	}

	tc.Log().Infow("Triggered run complete",
		"run_id", outcome.RunID,
		"ticker", outcome.Run.Ticker,
		"model", outcome.Model,
	)
	return nil
}
