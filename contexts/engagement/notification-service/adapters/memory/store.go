package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainerrors "greenloop/contexts/engagement/notification-service/domain/errors"
	"greenloop/contexts/engagement/notification-service/ports"
)

// Store is the in-memory inbox used by tests and local wiring.
type Store struct {
	mu sync.RWMutex

	byUser map[string][]ports.Notification
	seen   map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		byUser: make(map[string][]ports.Notification),
		seen:   make(map[string]struct{}),
	}
}

func (s *Store) Append(_ context.Context, notification ports.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[notification.NotificationID]; ok {
		return true, nil
	}
	s.seen[notification.NotificationID] = struct{}{}
	s.byUser[notification.UserID] = append(s.byUser[notification.UserID], notification)
	return false, nil
}

func (s *Store) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]ports.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inbox := s.byUser[strings.TrimSpace(userID)]
	items := make([]ports.Notification, 0, len(inbox))
	for i := len(inbox) - 1; i >= 0; i-- {
		if unreadOnly && inbox[i].Read {
			continue
		}
		items = append(items, inbox[i])
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkRead(_ context.Context, userID string, notificationID string) (ports.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inbox := s.byUser[strings.TrimSpace(userID)]
	for i := range inbox {
		if inbox[i].NotificationID == notificationID {
			inbox[i].Read = true
			return inbox[i], nil
		}
	}
	return ports.Notification{}, domainerrors.ErrNotificationNotFound
}

func (s *Store) MarkAllRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	inbox := s.byUser[strings.TrimSpace(userID)]
	for i := range inbox {
		if !inbox[i].Read {
			inbox[i].Read = true
			marked++
		}
	}
	return marked, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
