package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"greenloop/contexts/engagement/reward-ledger/adapters/memory"
	domainerrors "greenloop/contexts/engagement/reward-ledger/domain/errors"
	"greenloop/contexts/engagement/reward-ledger/ports"
)

func newTestService(store *memory.Store) Service {
	return Service{
		Repo:  store,
		Clock: store,
		IDGen: store,
	}
}

func seedStore(userPoints int, rewardCost int, stock int) *memory.Store {
	return memory.NewStore(
		[]ports.UserProjection{{UserID: "user_1", Points: userPoints}},
		[]ports.Reward{{RewardID: "reward_1", Title: "Tote Bag", CostPoints: rewardCost, Stock: stock}},
	)
}

func TestRedeemExactBalanceThenInsufficient(t *testing.T) {
	store := seedStore(50, 50, 5)
	service := newTestService(store)

	result, err := service.Redeem(context.Background(), "", "user_1", "reward_1")
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Receipt.RemainingPoints != 0 {
		t.Fatalf("expected zero balance, got %d", result.Receipt.RemainingPoints)
	}

	_, err = service.Redeem(context.Background(), "", "user_1", "reward_1")
	if !errors.Is(err, domainerrors.ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
}

func TestRedeemDecrementsStock(t *testing.T) {
	store := seedStore(100, 30, 1)
	service := newTestService(store)

	if _, err := service.Redeem(context.Background(), "", "user_1", "reward_1"); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	reward, err := store.GetReward(context.Background(), "reward_1")
	if err != nil {
		t.Fatalf("get reward failed: %v", err)
	}
	if reward.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", reward.Stock)
	}

	_, err = service.Redeem(context.Background(), "", "user_1", "reward_1")
	if !errors.Is(err, domainerrors.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestRedeemConcurrentLastUnit(t *testing.T) {
	store := memory.NewStore(
		[]ports.UserProjection{
			{UserID: "user_1", Points: 100},
			{UserID: "user_2", Points: 100},
		},
		[]ports.Reward{{RewardID: "reward_1", Title: "Tote Bag", CostPoints: 30, Stock: 1}},
	)
	service := newTestService(store)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, userID := range []string{"user_1", "user_2"} {
		wg.Add(1)
		go func(slot int, user string) {
			defer wg.Done()
			_, results[slot] = service.Redeem(context.Background(), "", user, "reward_1")
		}(i, userID)
	}
	wg.Wait()

	successes, outOfStock := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domainerrors.ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || outOfStock != 1 {
		t.Fatalf("expected exactly one success and one ErrOutOfStock, got %d/%d", successes, outOfStock)
	}
}

func TestRedeemReplaysByRequestID(t *testing.T) {
	store := seedStore(100, 30, 5)
	service := newTestService(store)

	first, err := service.Redeem(context.Background(), "req-1", "user_1", "reward_1")
	if err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	second, err := service.Redeem(context.Background(), "req-1", "user_1", "reward_1")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replay flag")
	}
	if second.Receipt.ReceiptID != first.Receipt.ReceiptID {
		t.Fatalf("expected replayed receipt id, got %s vs %s", first.Receipt.ReceiptID, second.Receipt.ReceiptID)
	}

	user, err := store.GetUserProjection(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}
	if user.Points != 70 {
		t.Fatalf("replay must not debit twice, got %d points", user.Points)
	}
}

func TestRedeemUnknownRewardAndUser(t *testing.T) {
	store := seedStore(100, 30, 5)
	service := newTestService(store)

	if _, err := service.Redeem(context.Background(), "", "user_1", "ghost"); !errors.Is(err, domainerrors.ErrRewardNotFound) {
		t.Fatalf("expected ErrRewardNotFound, got %v", err)
	}
	if _, err := service.Redeem(context.Background(), "", "ghost", "reward_1"); !errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateRewardValidation(t *testing.T) {
	store := memory.NewStore(nil, nil)
	service := newTestService(store)

	cases := []CreateRewardInput{
		{Title: "", CostPoints: 10, Stock: 1},
		{Title: "Bag", CostPoints: 0, Stock: 1},
		{Title: "Bag", CostPoints: 10, Stock: -1},
	}
	for _, input := range cases {
		if _, err := service.CreateReward(context.Background(), input); !errors.Is(err, domainerrors.ErrInvalidReward) {
			t.Fatalf("expected ErrInvalidReward for %+v, got %v", input, err)
		}
	}

	reward, err := service.CreateReward(context.Background(), CreateRewardInput{Title: " Tote Bag ", CostPoints: 25, Stock: 3})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if reward.Title != "Tote Bag" || reward.RewardID == "" {
		t.Fatalf("unexpected reward: %+v", reward)
	}
}

func TestUpdateStockValidation(t *testing.T) {
	store := seedStore(0, 30, 5)
	service := newTestService(store)

	if _, err := service.UpdateStock(context.Background(), "reward_1", -1); !errors.Is(err, domainerrors.ErrInvalidReward) {
		t.Fatalf("expected ErrInvalidReward, got %v", err)
	}
	reward, err := service.UpdateStock(context.Background(), "reward_1", 0)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if reward.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", reward.Stock)
	}
}

func TestListRewardsEligibility(t *testing.T) {
	store := memory.NewStore(
		[]ports.UserProjection{{UserID: "user_1", Points: 40}},
		[]ports.Reward{
			{RewardID: "r_cheap", Title: "Sticker", CostPoints: 10, Stock: 5},
			{RewardID: "r_pricey", Title: "Bike", CostPoints: 500, Stock: 2},
			{RewardID: "r_gone", Title: "Mug", CostPoints: 20, Stock: 0},
		},
	)
	service := newTestService(store)

	views, err := service.ListRewards(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 rewards, got %d", len(views))
	}
	if views[0].RewardID != "r_cheap" || views[1].RewardID != "r_gone" || views[2].RewardID != "r_pricey" {
		t.Fatalf("expected cost-ascending order, got %s, %s, %s", views[0].RewardID, views[1].RewardID, views[2].RewardID)
	}
	if !views[0].Eligible {
		t.Fatalf("expected r_cheap to be eligible")
	}
	if views[1].Eligible {
		t.Fatalf("expected r_gone to be ineligible with zero stock")
	}
	if views[2].Eligible {
		t.Fatalf("expected r_pricey to be unaffordable")
	}
}

func TestGetProgress(t *testing.T) {
	store := memory.NewStore(
		[]ports.UserProjection{{UserID: "user_1", Points: 120}},
		[]ports.Reward{{RewardID: "reward_1", Title: "Tote Bag", CostPoints: 30, Stock: 5}},
	)
	service := newTestService(store)

	if _, err := service.Redeem(context.Background(), "", "user_1", "reward_1"); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}

	progress, err := service.GetProgress(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if progress.User.Points != 90 {
		t.Fatalf("expected 90 points after debit, got %d", progress.User.Points)
	}
	if progress.Redemptions != 1 {
		t.Fatalf("expected 1 redemption, got %d", progress.Redemptions)
	}
	if progress.NextLevel != 2 || progress.PointsToNextLevel != 10 {
		t.Fatalf("unexpected next-level math: %+v", progress)
	}
	if progress.AffordableRewards != 1 {
		t.Fatalf("expected 1 affordable reward, got %d", progress.AffordableRewards)
	}
}
