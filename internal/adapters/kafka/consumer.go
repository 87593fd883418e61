package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"equitydesk/internal/metrics"
	"equitydesk/pkg/logger"
)

// MessageReader is the subset of *kafka.Reader the consumer needs
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageHandler processes one message. A returned error is logged; the
// message is committed either way so one bad trigger cannot wedge the group.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// Consumer reads trigger messages for one topic and consumer group
type Consumer struct {
	reader     MessageReader
	topic      string
	fetchPause time.Duration
	log        *logger.Logger
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topic   string
}

// NewConsumer creates a consumer group reader. Offsets are committed
// explicitly after each message is handled.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 1 << 20, // trigger payloads are tiny
		// Old triggers are not replayed when the group starts fresh
		StartOffset: kafka.LastOffset,
	})

	c := newConsumer(reader, cfg.Topic)
	c.log.Infow("Kafka consumer created", "brokers", cfg.Brokers, "group_id", cfg.GroupID)
	return c
}

func newConsumer(reader MessageReader, topic string) *Consumer {
	return &Consumer{
		reader:     reader,
		topic:      topic,
		fetchPause: time.Second,
		log:        logger.Get().Named("kafka_consumer").With("topic", topic),
	}
}

// Consume handles messages one at a time until ctx is cancelled, then
// returns ctx.Err(). Runs are long, so there is no point in prefetching.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	c.log.Info("Starting consumer...")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("Consumer stopped")
				return ctx.Err()
			}
			c.log.Warnw("Failed to fetch message", "error", err)
			if !c.pause(ctx) {
				return ctx.Err()
			}
			continue
		}

		herr := handler(ctx, msg)
		metrics.RecordKafkaMessage(c.topic, herr)
		if herr != nil {
			c.log.Errorw("Failed to handle message",
				"key", string(msg.Key),
				"offset", msg.Offset,
				"error", herr,
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Warnw("Failed to commit offset", "offset", msg.Offset, "error", err)
		}
	}
}

// pause waits before the next fetch after a broker error; false means shutdown
func (c *Consumer) pause(ctx context.Context) bool {
	timer := time.NewTimer(c.fetchPause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close closes the reader and leaves the group
func (c *Consumer) Close() error {
	return c.reader.Close()
}
