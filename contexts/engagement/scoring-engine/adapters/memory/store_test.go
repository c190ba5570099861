package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainerrors "greenloop/contexts/engagement/scoring-engine/domain/errors"
	"greenloop/contexts/engagement/scoring-engine/domain/rules"
	"greenloop/contexts/engagement/scoring-engine/ports"
)

func TestApplyAwardDuplicateIsNoOp(t *testing.T) {
	store := NewStore([]ports.User{{UserID: "user_1"}})
	event := ports.ScoringEvent{
		EventID:    "user_1|post_created|post_1",
		UserID:     "user_1",
		ActionKind: rules.ActionPostCreated,
		SourceID:   "post_1",
		Points:     10,
		CreatedAt:  time.Now().UTC(),
	}

	first, duplicate, err := store.ApplyAward(context.Background(), event)
	if err != nil || duplicate {
		t.Fatalf("first apply failed: dup=%v err=%v", duplicate, err)
	}
	if first.Points != 10 {
		t.Fatalf("expected 10 points, got %d", first.Points)
	}

	second, duplicate, err := store.ApplyAward(context.Background(), event)
	if err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if !duplicate || second.Points != 10 {
		t.Fatalf("expected no-op replay, dup=%v points=%d", duplicate, second.Points)
	}
}

func TestApplyAwardUnknownUser(t *testing.T) {
	store := NewStore(nil)
	_, _, err := store.ApplyAward(context.Background(), ports.ScoringEvent{
		EventID: "ghost|post_created|p", UserID: "ghost",
	})
	if !errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSeedNormalizesLevel(t *testing.T) {
	store := NewStore([]ports.User{{UserID: "user_1", Points: 600}})
	user, err := store.GetUser(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if user.Level != rules.LevelFor(600) {
		t.Fatalf("expected derived level %d, got %d", rules.LevelFor(600), user.Level)
	}
}

func TestGrantBadgesIsSetUnion(t *testing.T) {
	store := NewStore([]ports.User{{UserID: "user_1"}})
	now := time.Now().UTC()

	grants := []ports.BadgeGrant{{BadgeKey: "first_post", GrantedAt: now}}
	if _, err := store.GrantBadges(context.Background(), "user_1", grants, nil); err != nil {
		t.Fatalf("first grant failed: %v", err)
	}
	user, err := store.GrantBadges(context.Background(), "user_1", grants, nil)
	if err != nil {
		t.Fatalf("second grant failed: %v", err)
	}
	if len(user.Badges) != 1 {
		t.Fatalf("expected one badge after repeated grant, got %d", len(user.Badges))
	}
}

func TestLatestBillPerUtility(t *testing.T) {
	store := NewStore([]ports.User{{UserID: "user_1"}})
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	bills := []ports.UtilityBill{
		{BillID: "b1", UserID: "user_1", Utility: "electricity", Period: "2026-01", Consumption: 100, CreatedAt: base},
		{BillID: "b2", UserID: "user_1", Utility: "water", Period: "2026-01", Consumption: 3000, CreatedAt: base.Add(time.Hour)},
		{BillID: "b3", UserID: "user_1", Utility: "electricity", Period: "2026-02", Consumption: 90, CreatedAt: base.Add(2 * time.Hour)},
	}
	for i, bill := range bills {
		event := ports.ScoringEvent{
			EventID:    "user_1|bill_logged|" + bill.BillID,
			UserID:     "user_1",
			ActionKind: rules.ActionBillLogged,
			SourceID:   bill.BillID,
			CreatedAt:  bill.CreatedAt,
		}
		if _, _, err := store.CreateBillWithAward(context.Background(), bill, event, nil); err != nil {
			t.Fatalf("bill %d failed: %v", i, err)
		}
	}

	latest, ok, err := store.LatestBill(context.Background(), "user_1", "electricity")
	if err != nil || !ok {
		t.Fatalf("latest bill failed: ok=%v err=%v", ok, err)
	}
	if latest.BillID != "b3" {
		t.Fatalf("expected b3, got %s", latest.BillID)
	}

	if _, ok, _ := store.LatestBill(context.Background(), "user_1", "gas"); ok {
		t.Fatalf("expected no gas bill")
	}
}

func TestListBillsNewestFirstWithFilter(t *testing.T) {
	store := NewStore([]ports.User{{UserID: "user_1"}})
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"b1", "b2", "b3"} {
		bill := ports.UtilityBill{
			BillID: id, UserID: "user_1", Utility: "electricity",
			Period: "2026-0" + id[1:], CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		event := ports.ScoringEvent{
			EventID: "user_1|bill_logged|" + id, UserID: "user_1",
			ActionKind: rules.ActionBillLogged, SourceID: id, CreatedAt: bill.CreatedAt,
		}
		if _, _, err := store.CreateBillWithAward(context.Background(), bill, event, nil); err != nil {
			t.Fatalf("bill %s failed: %v", id, err)
		}
	}

	items, err := store.ListBills(context.Background(), "user_1", "electricity", 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 || items[0].BillID != "b3" || items[1].BillID != "b2" {
		t.Fatalf("unexpected page: %+v", items)
	}
}

func TestOutboxLifecycle(t *testing.T) {
	store := NewStore([]ports.User{{UserID: "user_1"}})
	now := time.Now().UTC()
	records := []ports.OutboxRecord{
		{OutboxID: "o1", EventType: "engagement.badge_earned", PartitionKey: "user_1", Payload: []byte(`{}`), CreatedAt: now},
		{OutboxID: "o2", EventType: "engagement.badge_earned", PartitionKey: "user_1", Payload: []byte(`{}`), CreatedAt: now},
	}
	if _, err := store.GrantBadges(context.Background(), "user_1", []ports.BadgeGrant{{BadgeKey: "first_post", GrantedAt: now}}, records); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}

	if err := store.MarkOutboxSent(context.Background(), "o1", now); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	pending, _ = store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 1 || pending[0].OutboxID != "o2" {
		t.Fatalf("expected only o2 pending, got %+v", pending)
	}

	err = store.MarkOutboxSent(context.Background(), "missing", now)
	if err == nil {
		t.Fatal("expected error for unknown outbox id")
	}
	if errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("unknown outbox id must not map to a request-validation error, got %v", err)
	}
}
