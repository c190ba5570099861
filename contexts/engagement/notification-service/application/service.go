package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domainerrors "greenloop/contexts/engagement/notification-service/domain/errors"
	"greenloop/contexts/engagement/notification-service/ports"
)

type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

type RecordInput struct {
	NotificationID string
	UserID         string
	Title          string
	Message        string
	Kind           string
}

// Record appends a notification to the user's inbox. A notification id
// seen before is a silent no-op.
func (s Service) Record(ctx context.Context, input RecordInput) error {
	id := strings.TrimSpace(input.NotificationID)
	userID := strings.TrimSpace(input.UserID)
	if id == "" || userID == "" || strings.TrimSpace(input.Title) == "" {
		return domainerrors.ErrInvalidRequest
	}

	duplicate, err := s.Repo.Append(ctx, ports.Notification{
		NotificationID: id,
		UserID:         userID,
		Title:          strings.TrimSpace(input.Title),
		Message:        strings.TrimSpace(input.Message),
		Kind:           strings.TrimSpace(input.Kind),
		CreatedAt:      s.now(),
	})
	if err != nil {
		return err
	}
	if duplicate {
		return nil
	}

	ResolveLogger(s.Logger).Info("notification recorded",
		"event", "notification_recorded",
		"module", "engagement/notification-service",
		"layer", "application",
		"user_id", userID,
		"kind", input.Kind,
	)
	return nil
}

func (s Service) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]ports.Notification, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.Repo.ListByUser(ctx, userID, unreadOnly, limit)
}

func (s Service) MarkRead(ctx context.Context, userID string, notificationID string) (ports.Notification, error) {
	userID = strings.TrimSpace(userID)
	notificationID = strings.TrimSpace(notificationID)
	if userID == "" || notificationID == "" {
		return ports.Notification{}, domainerrors.ErrInvalidRequest
	}
	return s.Repo.MarkRead(ctx, userID, notificationID)
}

func (s Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domainerrors.ErrInvalidRequest
	}
	return s.Repo.MarkAllRead(ctx, userID)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
