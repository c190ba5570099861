package application

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"greenloop/contexts/engagement/notification-service/adapters/memory"
	"greenloop/internal/shared/events"
)

func envelopeBytes(t *testing.T, eventID string, eventType string, userID string, payload map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  "scoring-engine",
		OccurredAtUTC:  time.Now().UTC(),
		EntityType:     "user",
		EntityID:       userID,
		PayloadVersion: 1,
		Payload:        payload,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return body
}

func TestHandleMessageBadgeEarned(t *testing.T) {
	store := memory.NewStore()
	consumer := Consumer{Service: Service{Repo: store, Clock: store}}

	payload := envelopeBytes(t, "evt-1", "engagement.badge_earned", "user_1", map[string]any{
		"badge_key":   "first_post",
		"badge_label": "First Post",
	})
	if err := consumer.HandleMessage(context.Background(), payload); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	items, err := store.ListByUser(context.Background(), "user_1", false, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one notification, got %d", len(items))
	}
	if items[0].Title != "Achievement unlocked!" || items[0].Kind != "achievement" {
		t.Fatalf("unexpected notification: %+v", items[0])
	}
	if !strings.Contains(items[0].Message, "First Post") {
		t.Fatalf("expected badge label in message, got %q", items[0].Message)
	}
}

func TestHandleMessageCarbonSaved(t *testing.T) {
	store := memory.NewStore()
	consumer := Consumer{Service: Service{Repo: store, Clock: store}}

	payload := envelopeBytes(t, "evt-2", "engagement.carbon_saved", "user_1", map[string]any{
		"utility":         "electricity",
		"carbon_saved_kg": 12.5,
	})
	if err := consumer.HandleMessage(context.Background(), payload); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	items, _ := store.ListByUser(context.Background(), "user_1", false, 0)
	if len(items) != 1 || items[0].Kind != "carbon" {
		t.Fatalf("unexpected inbox: %+v", items)
	}
	if !strings.Contains(items[0].Message, "12.5") || !strings.Contains(items[0].Message, "electricity") {
		t.Fatalf("unexpected message: %q", items[0].Message)
	}
}

func TestHandleMessageRedeliveryIsDeduped(t *testing.T) {
	store := memory.NewStore()
	consumer := Consumer{Service: Service{Repo: store, Clock: store}}

	payload := envelopeBytes(t, "evt-3", "engagement.reward_claimed", "user_1", map[string]any{
		"reward_title": "Tote Bag",
		"cost_points":  30,
	})
	for i := 0; i < 3; i++ {
		if err := consumer.HandleMessage(context.Background(), payload); err != nil {
			t.Fatalf("delivery %d failed: %v", i, err)
		}
	}

	items, _ := store.ListByUser(context.Background(), "user_1", false, 0)
	if len(items) != 1 {
		t.Fatalf("expected one notification after redelivery, got %d", len(items))
	}
}

func TestHandleMessageMutedCategoryIsDropped(t *testing.T) {
	store := memory.NewStore()
	consumer := Consumer{Service: Service{Repo: store, Clock: store}, MuteCarbon: true}

	carbon := envelopeBytes(t, "evt-5", "engagement.carbon_saved", "user_1", map[string]any{
		"utility":         "gas",
		"carbon_saved_kg": 4.0,
	})
	if err := consumer.HandleMessage(context.Background(), carbon); err != nil {
		t.Fatalf("muted event must be dropped silently, got %v", err)
	}

	badge := envelopeBytes(t, "evt-6", "engagement.badge_earned", "user_1", map[string]any{
		"badge_key":   "first_bill",
		"badge_label": "First Bill",
	})
	if err := consumer.HandleMessage(context.Background(), badge); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	items, _ := store.ListByUser(context.Background(), "user_1", false, 0)
	if len(items) != 1 || items[0].Kind != "achievement" {
		t.Fatalf("expected only the badge notification, got %+v", items)
	}
}

func TestHandleMessageSkipsUnknownAndMalformed(t *testing.T) {
	store := memory.NewStore()
	consumer := Consumer{Service: Service{Repo: store, Clock: store}}

	unknown := envelopeBytes(t, "evt-4", "engagement.profile_updated", "user_1", nil)
	if err := consumer.HandleMessage(context.Background(), unknown); err != nil {
		t.Fatalf("unknown event must be skipped, got %v", err)
	}
	if err := consumer.HandleMessage(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("malformed event must be skipped, got %v", err)
	}

	items, _ := store.ListByUser(context.Background(), "user_1", false, 0)
	if len(items) != 0 {
		t.Fatalf("expected empty inbox, got %d", len(items))
	}
}
