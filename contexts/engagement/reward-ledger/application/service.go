package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	domainerrors "greenloop/contexts/engagement/reward-ledger/domain/errors"
	"greenloop/contexts/engagement/reward-ledger/ports"
	"greenloop/internal/shared/events"
	"greenloop/internal/shared/leveling"
)

const (
	sourceService = "reward-ledger"

	EventTypeRewardClaimed = "engagement.reward_claimed"
)

type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type CreateRewardInput struct {
	Title       string
	Description string
	CostPoints  int
	Stock       int
}

// RewardView decorates a catalog entry with per-user eligibility: the
// user can afford it and at least one unit remains.
type RewardView struct {
	ports.Reward
	Eligible bool
}

type RedeemResult struct {
	Receipt  ports.Receipt
	Replayed bool
}

// Progress is the reward-facing summary of a user's standing.
type Progress struct {
	User              ports.UserProjection
	Redemptions       int
	NextLevel         int
	PointsToNextLevel int
	AffordableRewards int
}

// ListRewards returns the catalog sorted by cost ascending, flagging
// which entries the user can redeem right now. An empty user id returns
// the plain catalog with no eligibility.
func (s Service) ListRewards(ctx context.Context, userID string) ([]RewardView, error) {
	rewards, err := s.Repo.ListRewards(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(rewards, func(i, j int) bool {
		if rewards[i].CostPoints != rewards[j].CostPoints {
			return rewards[i].CostPoints < rewards[j].CostPoints
		}
		return rewards[i].RewardID < rewards[j].RewardID
	})

	points := -1
	if trimmed := strings.TrimSpace(userID); trimmed != "" {
		user, err := s.Repo.GetUserProjection(ctx, trimmed)
		if err != nil {
			return nil, err
		}
		points = user.Points
	}

	views := make([]RewardView, 0, len(rewards))
	for _, reward := range rewards {
		views = append(views, RewardView{
			Reward:   reward,
			Eligible: points >= 0 && points >= reward.CostPoints && reward.Stock > 0,
		})
	}
	return views, nil
}

func (s Service) CreateReward(ctx context.Context, input CreateRewardInput) (ports.Reward, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.CostPoints <= 0 || input.Stock < 0 {
		return ports.Reward{}, domainerrors.ErrInvalidReward
	}

	id, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.Reward{}, err
	}
	now := s.now()
	reward := ports.Reward{
		RewardID:    id,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CostPoints:  input.CostPoints,
		Stock:       input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := s.Repo.CreateReward(ctx, reward)
	if err != nil {
		return ports.Reward{}, err
	}

	ResolveLogger(s.Logger).Info("reward created",
		"event", "reward_created",
		"module", "engagement/reward-ledger",
		"layer", "application",
		"reward_id", created.RewardID,
		"cost_points", created.CostPoints,
		"stock", created.Stock,
	)
	return created, nil
}

func (s Service) UpdateStock(ctx context.Context, rewardID string, stock int) (ports.Reward, error) {
	rewardID = strings.TrimSpace(rewardID)
	if rewardID == "" {
		return ports.Reward{}, domainerrors.ErrInvalidRequest
	}
	if stock < 0 {
		return ports.Reward{}, domainerrors.ErrInvalidReward
	}
	return s.Repo.UpdateStock(ctx, rewardID, stock)
}

// Redeem executes the balance-check-then-debit protocol. A request id
// seen before replays the stored receipt; the repository applies the
// checks, debit and decrement as one atomic step.
func (s Service) Redeem(ctx context.Context, requestID string, userID string, rewardID string) (RedeemResult, error) {
	userID = strings.TrimSpace(userID)
	rewardID = strings.TrimSpace(rewardID)
	if userID == "" || rewardID == "" {
		return RedeemResult{}, domainerrors.ErrInvalidRequest
	}

	requestID = strings.TrimSpace(requestID)
	if requestID != "" {
		existing, found, err := s.Repo.GetReceiptByRequestID(ctx, requestID)
		if err != nil {
			return RedeemResult{}, err
		}
		if found {
			return RedeemResult{Receipt: existing, Replayed: true}, nil
		}
	}

	reward, err := s.Repo.GetReward(ctx, rewardID)
	if err != nil {
		return RedeemResult{}, err
	}

	receiptID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return RedeemResult{}, err
	}
	if requestID == "" {
		requestID = receiptID
	}
	now := s.now()
	receipt := ports.Receipt{
		ReceiptID:   receiptID,
		RequestID:   requestID,
		RewardID:    reward.RewardID,
		RewardTitle: reward.Title,
		UserID:      userID,
		CostPoints:  reward.CostPoints,
		RedeemedAt:  now,
	}

	record, err := s.buildOutboxRecord(ctx, userID, map[string]any{
		"reward_id":    reward.RewardID,
		"reward_title": reward.Title,
		"cost_points":  reward.CostPoints,
	}, now)
	if err != nil {
		return RedeemResult{}, err
	}

	redeemed, err := s.Repo.Redeem(ctx, receipt, []ports.OutboxRecord{record})
	if err != nil {
		return RedeemResult{}, err
	}

	ResolveLogger(s.Logger).Info("reward redeemed",
		"event", "reward_redeemed",
		"module", "engagement/reward-ledger",
		"layer", "application",
		"user_id", userID,
		"reward_id", reward.RewardID,
		"cost_points", reward.CostPoints,
		"remaining_points", redeemed.RemainingPoints,
	)
	return RedeemResult{Receipt: redeemed}, nil
}

func (s Service) ListReceipts(ctx context.Context, userID string, limit int) ([]ports.Receipt, error) {
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
	return s.Repo.ListReceipts(ctx, userID, limit)
}

// GetProgress summarizes the user's standing from the ledger's point of
// view: balance, distance to the next level, and what the balance buys.
func (s Service) GetProgress(ctx context.Context, userID string) (Progress, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Progress{}, domainerrors.ErrInvalidRequest
	}
	user, err := s.Repo.GetUserProjection(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	receipts, err := s.Repo.ListReceipts(ctx, userID, 0)
	if err != nil {
		return Progress{}, err
	}
	rewards, err := s.Repo.ListRewards(ctx)
	if err != nil {
		return Progress{}, err
	}

	affordable := 0
	for _, reward := range rewards {
		if reward.Stock > 0 && user.Points >= reward.CostPoints {
			affordable++
		}
	}

	progress := Progress{
		User:              user,
		Redemptions:       len(receipts),
		AffordableRewards: affordable,
	}
	if next := user.Level + 1; next <= leveling.MaxLevel() {
		progress.NextLevel = next
		progress.PointsToNextLevel = leveling.ThresholdFor(next) - user.Points
		if progress.PointsToNextLevel < 0 {
			progress.PointsToNextLevel = 0
		}
	}
	return progress, nil
}

func (s Service) buildOutboxRecord(ctx context.Context, userID string, payload map[string]any, at time.Time) (ports.OutboxRecord, error) {
	id, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.OutboxRecord{}, err
	}
	body, err := json.Marshal(events.Envelope{
		EventID:        id,
		EventType:      EventTypeRewardClaimed,
		SourceService:  sourceService,
		OccurredAtUTC:  at,
		EntityType:     "user",
		EntityID:       userID,
		PayloadVersion: 1,
		Payload:        payload,
	})
	if err != nil {
		return ports.OutboxRecord{}, err
	}
	return ports.OutboxRecord{
		OutboxID:     id,
		EventType:    EventTypeRewardClaimed,
		PartitionKey: userID,
		Payload:      body,
		CreatedAt:    at,
	}, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
