package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"greenloop/contexts/engagement/notification-service/adapters/memory"
	domainerrors "greenloop/contexts/engagement/notification-service/domain/errors"
)

func seedInbox(t *testing.T, service Service, userID string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		err := service.Record(context.Background(), RecordInput{
			NotificationID: fmt.Sprintf("n-%d", i),
			UserID:         userID,
			Title:          "Great job!",
			Kind:           "carbon",
		})
		if err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
	}
}

func TestListUnreadOnly(t *testing.T) {
	store := memory.NewStore()
	service := Service{Repo: store, Clock: store}
	seedInbox(t, service, "user_1", 3)

	if _, err := service.MarkRead(context.Background(), "user_1", "n-0"); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	unread, err := service.List(context.Background(), "user_1", true, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(unread) != 2 {
		t.Fatalf("expected 2 unread, got %d", len(unread))
	}

	all, _ := service.List(context.Background(), "user_1", false, 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 total, got %d", len(all))
	}
}

func TestMarkAllRead(t *testing.T) {
	store := memory.NewStore()
	service := Service{Repo: store, Clock: store}
	seedInbox(t, service, "user_1", 3)

	marked, err := service.MarkAllRead(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("mark all failed: %v", err)
	}
	if marked != 3 {
		t.Fatalf("expected 3 marked, got %d", marked)
	}

	again, _ := service.MarkAllRead(context.Background(), "user_1")
	if again != 0 {
		t.Fatalf("expected 0 on second pass, got %d", again)
	}
}

func TestMarkReadUnknownNotification(t *testing.T) {
	store := memory.NewStore()
	service := Service{Repo: store, Clock: store}

	if _, err := service.MarkRead(context.Background(), "user_1", "ghost"); !errors.Is(err, domainerrors.ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}
