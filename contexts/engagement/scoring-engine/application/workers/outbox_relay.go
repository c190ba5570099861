package workers

import (
	"context"
	"log/slog"
	"time"

	application "greenloop/contexts/engagement/scoring-engine/application"
	"greenloop/contexts/engagement/scoring-engine/ports"
)

// OutboxRelay drains pending outbox rows to the message bus. Rows are
// marked sent only after a successful publish, so delivery is
// at-least-once and consumers must dedupe by event id.
type OutboxRelay struct {
	Outbox    ports.OutboxStore
	Publisher ports.EventPublisher
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
			"event", "scoring_outbox_list_failed",
			"module", "engagement/scoring-engine",
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
				"event", "scoring_outbox_publish_failed",
				"module", "engagement/scoring-engine",
				"layer", "worker",
				"outbox_id", record.OutboxID,
				"event_type", record.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxSent(ctx, record.OutboxID, now); err != nil {
			logger.Error("outbox mark sent failed",
				"event", "scoring_outbox_mark_sent_failed",
				"module", "engagement/scoring-engine",
				"layer", "worker",
				"outbox_id", record.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("outbox relay cycle completed",
			"event", "scoring_outbox_relay_completed",
			"module", "engagement/scoring-engine",
			"layer", "worker",
			"sent_count", len(pending),
		)
	}
	return nil
}
