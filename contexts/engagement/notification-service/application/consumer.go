package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"greenloop/internal/shared/events"
)

const (
	eventTypeBadgeEarned   = "engagement.badge_earned"
	eventTypeCarbonSaved   = "engagement.carbon_saved"
	eventTypeRewardClaimed = "engagement.reward_claimed"
)

// Consumer turns engagement envelopes from the bus into inbox entries.
// The envelope event id doubles as the notification id, so redelivered
// messages collapse into one notification. The Mute switches drop a
// whole category without leaving the consumer group.
type Consumer struct {
	Service          Service
	MuteAchievements bool
	MuteCarbon       bool
	MuteRewards      bool
	Logger           *slog.Logger
}

func (c Consumer) HandleMessage(ctx context.Context, payload []byte) error {
	logger := ResolveLogger(c.Logger)

	var envelope events.Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		logger.Warn("malformed engagement event skipped",
			"event", "notification_event_malformed",
			"module", "engagement/notification-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return nil
	}
	body, _ := envelope.Payload.(map[string]any)

	input := RecordInput{
		NotificationID: envelope.EventID,
		UserID:         envelope.EntityID,
	}
	switch envelope.EventType {
	case eventTypeBadgeEarned:
		if c.MuteAchievements {
			return nil
		}
		input.Title = "Achievement unlocked!"
		input.Message = fmt.Sprintf("You earned the %s badge.", stringField(body, "badge_label"))
		input.Kind = "achievement"
	case eventTypeCarbonSaved:
		if c.MuteCarbon {
			return nil
		}
		input.Title = "Great job!"
		input.Message = fmt.Sprintf("You saved %.1f kg of CO2 on your %s bill.",
			numberField(body, "carbon_saved_kg"), stringField(body, "utility"))
		input.Kind = "carbon"
	case eventTypeRewardClaimed:
		if c.MuteRewards {
			return nil
		}
		input.Title = "Reward claimed!"
		input.Message = fmt.Sprintf("You redeemed %s for %d points.",
			stringField(body, "reward_title"), int(numberField(body, "cost_points")))
		input.Kind = "reward"
	default:
		logger.Warn("unknown engagement event skipped",
			"event", "notification_event_unknown",
			"module", "engagement/notification-service",
			"layer", "worker",
			"event_type", envelope.EventType,
		)
		return nil
	}

	return c.Service.Record(ctx, input)
}

func stringField(body map[string]any, key string) string {
	value, _ := body[key].(string)
	return value
}

func numberField(body map[string]any, key string) float64 {
	value, _ := body[key].(float64)
	return value
}
