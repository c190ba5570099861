package ports

import (
	"context"
	"time"
)

// Reward is one redeemable catalog entry. Stock counts remaining units;
// a negative stock never occurs.
type Reward struct {
	RewardID    string
	Title       string
	Description string
	CostPoints  int
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Receipt is the immutable record of one successful redemption.
// RequestID is the client-supplied idempotency key; retried requests
// replay the stored receipt instead of debiting twice.
type Receipt struct {
	ReceiptID       string
	RequestID       string
	RewardID        string
	RewardTitle     string
	UserID          string
	CostPoints      int
	RemainingPoints int
	RedeemedAt      time.Time
}

// UserProjection is the ledger's read model over the shared user state.
type UserProjection struct {
	UserID      string
	DisplayName string
	Points      int
	Level       int
	CarbonSaved float64
	BadgeCount  int
}

type OutboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type Repository interface {
	ListRewards(ctx context.Context) ([]Reward, error)
	GetReward(ctx context.Context, rewardID string) (Reward, error)
	CreateReward(ctx context.Context, reward Reward) (Reward, error)
	UpdateStock(ctx context.Context, rewardID string, stock int) (Reward, error)

	GetUserProjection(ctx context.Context, userID string) (UserProjection, error)
	GetReceiptByRequestID(ctx context.Context, requestID string) (Receipt, bool, error)

	// Redeem applies the balance check, stock check, point debit and
	// stock decrement as one atomic step, persisting the receipt and the
	// outbox rows with it. The returned receipt carries the remaining
	// balance after the debit.
	Redeem(ctx context.Context, receipt Receipt, records []OutboxRecord) (Receipt, error)

	ListReceipts(ctx context.Context, userID string, limit int) ([]Receipt, error)
}

type OutboxStore interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
