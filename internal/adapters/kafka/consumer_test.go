package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equitydesk/pkg/errors"
)

// scriptedReader replays messages and errors, then blocks until ctx ends
type scriptedReader struct {
	mu        sync.Mutex
	steps     []step
	committed []int64
}

type step struct {
	msg kafka.Message
	err error
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.steps) > 0 {
		s := r.steps[0]
		r.steps = r.steps[1:]
		r.mu.Unlock()
		return s.msg, s.err
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func TestConsumerCommitsAfterEveryMessage(t *testing.T) {
	reader := &scriptedReader{steps: []step{
		{msg: kafka.Message{Offset: 1, Value: []byte(`{"ticker":"TCS"}`)}},
		{err: errors.New("broker not available")},
		{msg: kafka.Message{Offset: 2, Value: []byte(`{bad`)}},
	}}
	consumer := newConsumer(reader, "runs.triggers")
	consumer.fetchPause = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	var handled []string
	handler := func(ctx context.Context, msg kafka.Message) error {
		handled = append(handled, string(msg.Value))
		if len(handled) == 2 {
			defer cancel()
			return errors.ErrInvalidInput
		}
		return nil
	}

	err := consumer.Consume(ctx, handler)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{`{"ticker":"TCS"}`, `{bad`}, handled)
	assert.Equal(t, []int64{1, 2}, reader.committed, "failed messages are committed too")
}

func TestConsumerStopsDuringPause(t *testing.T) {
	reader := &scriptedReader{steps: []step{{err: errors.New("broker not available")}}}
	consumer := newConsumer(reader, "runs.triggers")
	consumer.fetchPause = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := consumer.Consume(ctx, func(context.Context, kafka.Message) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
