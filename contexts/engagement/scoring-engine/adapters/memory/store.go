package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"greenloop/contexts/engagement/scoring-engine/domain/carbon"
	domainerrors "greenloop/contexts/engagement/scoring-engine/domain/errors"
	"greenloop/contexts/engagement/scoring-engine/domain/rules"
	"greenloop/contexts/engagement/scoring-engine/ports"

	"github.com/google/uuid"
)

type outboxRow struct {
	record ports.OutboxRecord
	sent   bool
	sentAt time.Time
}

// Store is the in-memory repository used by tests and local wiring. All
// mutating operations hold the store lock for their full critical
// section, which gives the same atomicity the postgres adapter gets from
// transactions.
type Store struct {
	mu sync.RWMutex

	users  map[string]ports.User
	events map[string]ports.ScoringEvent
	bills  map[string][]ports.UtilityBill
	outbox []outboxRow
}

func NewStore(seed []ports.User) *Store {
	users := make(map[string]ports.User, len(seed))
	for _, user := range seed {
		user.UserID = strings.TrimSpace(user.UserID)
		if user.UserID == "" {
			continue
		}
		user.Level = rules.LevelFor(user.Points)
		users[user.UserID] = user
	}
	return &Store{
		users:  users,
		events: make(map[string]ports.ScoringEvent),
		bills:  make(map[string][]ports.UtilityBill),
	}
}

func (s *Store) SeedUser(user ports.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.UserID = strings.TrimSpace(user.UserID)
	user.Level = rules.LevelFor(user.Points)
	s.users[user.UserID] = user
}

func (s *Store) GetUser(_ context.Context, userID string) (ports.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[strings.TrimSpace(userID)]
	if !ok {
		return ports.User{}, domainerrors.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (s *Store) ApplyAward(_ context.Context, event ports.ScoringEvent) (ports.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[event.UserID]
	if !ok {
		return ports.User{}, false, domainerrors.ErrUserNotFound
	}
	if _, exists := s.events[event.EventID]; exists {
		return cloneUser(user), true, nil
	}

	s.events[event.EventID] = event
	s.applyDeltas(&user, event)
	s.users[event.UserID] = user
	return cloneUser(user), false, nil
}

func (s *Store) GrantBadges(_ context.Context, userID string, grants []ports.BadgeGrant, records []ports.OutboxRecord) (ports.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[strings.TrimSpace(userID)]
	if !ok {
		return ports.User{}, domainerrors.ErrUserNotFound
	}

	held := make(map[string]struct{}, len(user.Badges))
	for _, grant := range user.Badges {
		held[grant.BadgeKey] = struct{}{}
	}
	for _, grant := range grants {
		if _, ok := held[grant.BadgeKey]; ok {
			continue
		}
		user.Badges = append(user.Badges, grant)
		held[grant.BadgeKey] = struct{}{}
	}
	s.users[user.UserID] = user

	for _, record := range records {
		s.outbox = append(s.outbox, outboxRow{record: record})
	}
	return cloneUser(user), nil
}

func (s *Store) ActivityCounts(_ context.Context, userID string) (ports.ActivityCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID = strings.TrimSpace(userID)
	var counts ports.ActivityCounts
	for _, event := range s.events {
		if event.UserID != userID {
			continue
		}
		switch event.ActionKind {
		case rules.ActionPostCreated:
			counts.Posts++
		case rules.ActionCommentAdded:
			counts.Comments++
		case rules.ActionReportFiled:
			counts.Reports++
		case rules.ActionReportVerified:
			counts.ReportsVerified++
		}
	}
	counts.Bills = len(s.bills[userID])
	return counts, nil
}

func (s *Store) LatestBill(_ context.Context, userID string, utility carbon.Utility) (ports.UtilityBill, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bills := s.bills[strings.TrimSpace(userID)]
	for i := len(bills) - 1; i >= 0; i-- {
		if bills[i].Utility == utility {
			return bills[i], true, nil
		}
	}
	return ports.UtilityBill{}, false, nil
}

func (s *Store) CreateBillWithAward(_ context.Context, bill ports.UtilityBill, event ports.ScoringEvent, records []ports.OutboxRecord) (ports.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[bill.UserID]
	if !ok {
		return ports.User{}, false, domainerrors.ErrUserNotFound
	}
	if _, exists := s.events[event.EventID]; exists {
		return cloneUser(user), true, nil
	}
	for _, existing := range s.bills[bill.UserID] {
		if existing.BillID == bill.BillID {
			return cloneUser(user), true, nil
		}
	}

	s.bills[bill.UserID] = append(s.bills[bill.UserID], bill)
	s.events[event.EventID] = event
	s.applyDeltas(&user, event)
	s.users[user.UserID] = user

	for _, record := range records {
		s.outbox = append(s.outbox, outboxRow{record: record})
	}
	return cloneUser(user), false, nil
}

func (s *Store) ListBills(_ context.Context, userID string, utility carbon.Utility, limit int) ([]ports.UtilityBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bills := s.bills[strings.TrimSpace(userID)]
	items := make([]ports.UtilityBill, 0, len(bills))
	for i := len(bills) - 1; i >= 0; i-- {
		if utility != "" && bills[i].Utility != utility {
			continue
		}
		items = append(items, bills[i])
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) ListStandings(_ context.Context, metric ports.Metric, limit int) ([]ports.LeaderboardEntry, error) {
	s.mu.RLock()
	users := make([]ports.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		left, right := users[i], users[j]
		switch {
		case metricValue(left, metric) != metricValue(right, metric):
			return metricValue(left, metric) > metricValue(right, metric)
		case !left.CreatedAt.Equal(right.CreatedAt):
			return left.CreatedAt.Before(right.CreatedAt)
		default:
			return left.UserID < right.UserID
		}
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}

	entries := make([]ports.LeaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, ports.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      user.UserID,
			DisplayName: user.DisplayName,
			Points:      user.Points,
			Level:       user.Level,
			CarbonSaved: user.CarbonSaved,
			BadgeCount:  len(user.Badges),
		})
	}
	return entries, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	records := make([]ports.OutboxRecord, 0, limit)
	for _, row := range s.outbox {
		if row.sent {
			continue
		}
		records = append(records, row.record)
		if len(records) == limit {
			break
		}
	}
	return records, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].record.OutboxID == outboxID {
			s.outbox[i].sent = true
			s.outbox[i].sentAt = sentAt.UTC()
			return nil
		}
	}
	return fmt.Errorf("outbox row %s not found", outboxID)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// applyDeltas mutates the user under the store lock. Points never drop
// below zero and the level is always re-derived from the new total.
func (s *Store) applyDeltas(user *ports.User, event ports.ScoringEvent) {
	user.Points += event.Points
	if user.Points < 0 {
		user.Points = 0
	}
	user.CarbonSaved += event.CarbonDelta
	user.Level = rules.LevelFor(user.Points)
	user.UpdatedAt = event.CreatedAt.UTC()
}

func metricValue(user ports.User, metric ports.Metric) float64 {
	switch metric {
	case ports.MetricLevel:
		return float64(user.Level)
	case ports.MetricCarbonSaved:
		return user.CarbonSaved
	default:
		return float64(user.Points)
	}
}

func cloneUser(user ports.User) ports.User {
	user.Badges = append([]ports.BadgeGrant(nil), user.Badges...)
	return user
}
