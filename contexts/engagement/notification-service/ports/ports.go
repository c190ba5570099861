package ports

import (
	"context"
	"time"
)

type Notification struct {
	NotificationID string
	UserID         string
	Title          string
	Message        string
	Kind           string
	Read           bool
	CreatedAt      time.Time
}

type Repository interface {
	// Append stores a notification. Appending an id seen before is a
	// no-op reporting duplicate=true, which makes at-least-once event
	// delivery safe.
	Append(ctx context.Context, notification Notification) (duplicate bool, err error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, userID string, notificationID string) (Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type Clock interface {
	Now() time.Time
}
