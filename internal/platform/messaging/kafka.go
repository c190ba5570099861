package messaging

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Kafka is the event bus adapter shared by the outbox relays and the
// notification consumer. Messages are keyed by partition key so all
// events for one user stay ordered within a partition.
type Kafka struct {
	brokers []string
	writer  *kafka.Writer
	logger  *slog.Logger
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &Kafka{
		brokers: brokers,
		writer:  writer,
		logger:  logger,
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	err := k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return err
	}
	k.logger.Debug("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
	)
	return nil
}

// Subscribe runs a fetch/handle/commit loop until the context is
// canceled. A handler error is logged and the message committed
// anyway: skipping the commit would not help, since committing any
// later offset implicitly commits this one too. Redelivery happens
// only on restarts before a commit, so consumers dedupe by event id.
func (k *Kafka) Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, []byte) error) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		GroupID: consumerGroup,
		Topic:   topic,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			k.logger.Error("kafka reader close failed",
				"event", "kafka_reader_close_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"error", err.Error(),
			)
		}
	}()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if err := handler(ctx, msg.Value); err != nil {
			k.logger.Error("consumer handler failed, dropping event",
				"event", "kafka_consume_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"offset", msg.Offset,
				"error", err.Error(),
			)
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			k.logger.Error("kafka commit failed",
				"event", "kafka_commit_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"error", err.Error(),
			)
		}
	}
}

func (k *Kafka) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
