package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "greenloop/contexts/engagement/reward-ledger/domain/errors"
	"greenloop/contexts/engagement/reward-ledger/ports"
	"greenloop/internal/shared/leveling"

	"github.com/google/uuid"
)

type outboxRow struct {
	record ports.OutboxRecord
	sent   bool
	sentAt time.Time
}

// Store is the in-memory repository used by tests and local wiring. The
// whole redemption protocol runs under one lock, which gives the same
// atomicity the postgres adapter gets from conditional updates in a
// transaction.
type Store struct {
	mu sync.RWMutex

	users            map[string]ports.UserProjection
	rewards          map[string]ports.Reward
	receipts         map[string][]ports.Receipt
	receiptByRequest map[string]ports.Receipt
	outbox           []outboxRow
}

func NewStore(seedUsers []ports.UserProjection, seedRewards []ports.Reward) *Store {
	users := make(map[string]ports.UserProjection, len(seedUsers))
	for _, user := range seedUsers {
		user.UserID = strings.TrimSpace(user.UserID)
		if user.UserID == "" {
			continue
		}
		user.Level = leveling.LevelFor(user.Points)
		users[user.UserID] = user
	}
	rewards := make(map[string]ports.Reward, len(seedRewards))
	for _, reward := range seedRewards {
		reward.RewardID = strings.TrimSpace(reward.RewardID)
		if reward.RewardID == "" {
			continue
		}
		rewards[reward.RewardID] = reward
	}
	return &Store{
		users:            users,
		rewards:          rewards,
		receipts:         make(map[string][]ports.Receipt),
		receiptByRequest: make(map[string]ports.Receipt),
	}
}

func (s *Store) ListRewards(_ context.Context) ([]ports.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.Reward, 0, len(s.rewards))
	for _, reward := range s.rewards {
		items = append(items, reward)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].RewardID < items[j].RewardID
	})
	return items, nil
}

func (s *Store) GetReward(_ context.Context, rewardID string) (ports.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reward, ok := s.rewards[strings.TrimSpace(rewardID)]
	if !ok {
		return ports.Reward{}, domainerrors.ErrRewardNotFound
	}
	return reward, nil
}

func (s *Store) CreateReward(_ context.Context, reward ports.Reward) (ports.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rewards[reward.RewardID] = reward
	return reward, nil
}

func (s *Store) UpdateStock(_ context.Context, rewardID string, stock int) (ports.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reward, ok := s.rewards[strings.TrimSpace(rewardID)]
	if !ok {
		return ports.Reward{}, domainerrors.ErrRewardNotFound
	}
	reward.Stock = stock
	reward.UpdatedAt = time.Now().UTC()
	s.rewards[reward.RewardID] = reward
	return reward, nil
}

func (s *Store) GetUserProjection(_ context.Context, userID string) (ports.UserProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[strings.TrimSpace(userID)]
	if !ok {
		return ports.UserProjection{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetReceiptByRequestID(_ context.Context, requestID string) (ports.Receipt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	receipt, ok := s.receiptByRequest[strings.TrimSpace(requestID)]
	return receipt, ok, nil
}

func (s *Store) Redeem(_ context.Context, receipt ports.Receipt, records []ports.OutboxRecord) (ports.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.receiptByRequest[receipt.RequestID]; ok {
		return existing, nil
	}

	reward, ok := s.rewards[receipt.RewardID]
	if !ok {
		return ports.Receipt{}, domainerrors.ErrRewardNotFound
	}
	user, ok := s.users[receipt.UserID]
	if !ok {
		return ports.Receipt{}, domainerrors.ErrUserNotFound
	}
	if reward.Stock <= 0 {
		return ports.Receipt{}, domainerrors.ErrOutOfStock
	}
	if user.Points < receipt.CostPoints {
		return ports.Receipt{}, domainerrors.ErrInsufficientPoints
	}

	reward.Stock--
	reward.UpdatedAt = receipt.RedeemedAt.UTC()
	user.Points -= receipt.CostPoints
	user.Level = leveling.LevelFor(user.Points)
	receipt.RemainingPoints = user.Points

	s.rewards[reward.RewardID] = reward
	s.users[user.UserID] = user
	s.receipts[user.UserID] = append(s.receipts[user.UserID], receipt)
	s.receiptByRequest[receipt.RequestID] = receipt
	for _, record := range records {
		s.outbox = append(s.outbox, outboxRow{record: record})
	}
	return receipt, nil
}

func (s *Store) ListReceipts(_ context.Context, userID string, limit int) ([]ports.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	receipts := s.receipts[strings.TrimSpace(userID)]
	items := make([]ports.Receipt, 0, len(receipts))
	for i := len(receipts) - 1; i >= 0; i-- {
		items = append(items, receipts[i])
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
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
