package workers

import (
	"context"
	"log/slog"
	"time"

	"greenloop/contexts/engagement/reward-ledger/application"
	"greenloop/contexts/engagement/reward-ledger/ports"
)

// EventPublisher is the bus-facing side of the relay.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte) error
}

// OutboxRelay drains pending ledger outbox rows to the message bus.
// Rows are marked sent only after a successful publish, so delivery is
// at-least-once and consumers must dedupe by event id.
type OutboxRelay struct {
	Outbox    ports.OutboxStore
	Publisher EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := r.Topic
	if topic == "" {
		topic = "engagement.events"
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("outbox list pending failed",
			"event", "reward_outbox_list_failed",
			"module", "engagement/reward-ledger",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, record := range pending {
		if err := r.Publisher.Publish(ctx, topic, record.PartitionKey, record.Payload); err != nil {
			logger.Error("outbox publish failed",
				"event", "reward_outbox_publish_failed",
				"module", "engagement/reward-ledger",
				"layer", "worker",
				"outbox_id", record.OutboxID,
				"event_type", record.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxSent(ctx, record.OutboxID, now); err != nil {
			logger.Error("outbox mark sent failed",
				"event", "reward_outbox_mark_sent_failed",
				"module", "engagement/reward-ledger",
				"layer", "worker",
				"outbox_id", record.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("outbox relay cycle completed",
			"event", "reward_outbox_relay_completed",
			"module", "engagement/reward-ledger",
			"layer", "worker",
			"sent_count", len(pending),
		)
	}
	return nil
}
