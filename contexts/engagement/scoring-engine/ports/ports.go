package ports

import (
	"context"
	"time"

	"greenloop/contexts/engagement/scoring-engine/domain/carbon"
	"greenloop/contexts/engagement/scoring-engine/domain/rules"
)

// User is the engine-owned slice of a user record. Points, level, carbon
// and badges are mutated only through the engine's award operations.
type User struct {
	UserID      string
	DisplayName string
	Points      int
	Level       int
	CarbonSaved float64
	Badges      []BadgeGrant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BadgeKeys flattens the grant list for response shaping.
func (u User) BadgeKeys() []string {
	keys := make([]string, 0, len(u.Badges))
	for _, grant := range u.Badges {
		keys = append(keys, grant.BadgeKey)
	}
	return keys
}

// ScoringEvent is the idempotency unit for one physical action. EventID
// is a stable key derived from {user, action kind, source entity}; the
// same physical action can never be scored twice.
type ScoringEvent struct {
	EventID     string
	UserID      string
	ActionKind  rules.ActionKind
	SourceID    string
	Points      int
	CarbonDelta float64
	CreatedAt   time.Time
}

// UtilityBill is an immutable consumption record. Corrections are new
// entries, never in-place edits.
type UtilityBill struct {
	BillID      string
	UserID      string
	Utility     carbon.Utility
	Period      string
	Consumption float64
	Unit        string
	Cost        float64
	CarbonDelta float64
	CreatedAt   time.Time
}

type BadgeGrant struct {
	BadgeKey  string
	GrantedAt time.Time
}

// ActivityCounts are the per-kind totals badge predicates depend on.
type ActivityCounts struct {
	Posts           int
	Comments        int
	Reports         int
	ReportsVerified int
	Bills           int
}

// Metric selects the leaderboard ordering.
type Metric string

const (
	MetricPoints      Metric = "points"
	MetricLevel       Metric = "level"
	MetricCarbonSaved Metric = "carbon_saved"
)

type LeaderboardEntry struct {
	Rank        int
	UserID      string
	DisplayName string
	Points      int
	Level       int
	CarbonSaved float64
	BadgeCount  int
}

// OutboxRecord is an event row written in the same transaction as the
// state change it describes. The worker relay publishes pending rows.
type OutboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type Repository interface {
	GetUser(ctx context.Context, userID string) (User, error)
	// ApplyAward records the scoring event and applies its point and
	// carbon deltas atomically. The bool reports a duplicate event, in
	// which case the returned user state is unchanged.
	ApplyAward(ctx context.Context, event ScoringEvent) (User, bool, error)
	// GrantBadges appends unheld badges and the accompanying outbox rows
	// in one transaction. Granting a held badge is a no-op.
	GrantBadges(ctx context.Context, userID string, grants []BadgeGrant, records []OutboxRecord) (User, error)
	ActivityCounts(ctx context.Context, userID string) (ActivityCounts, error)
	LatestBill(ctx context.Context, userID string, utility carbon.Utility) (UtilityBill, bool, error)
	// CreateBillWithAward persists the bill, its scoring event and the
	// award deltas atomically. The bool reports a duplicate entry.
	CreateBillWithAward(ctx context.Context, bill UtilityBill, event ScoringEvent, records []OutboxRecord) (User, bool, error)
	ListBills(ctx context.Context, userID string, utility carbon.Utility, limit int) ([]UtilityBill, error)
	// ListStandings returns a consistent snapshot ordered by the metric
	// descending, ties broken by earlier account creation.
	ListStandings(ctx context.Context, metric Metric, limit int) ([]LeaderboardEntry, error)
}

// OutboxStore is the relay-facing slice of the repository.
type OutboxStore interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventPublisher hands outbox payloads to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
