package rewardledger

import (
	"context"
	"testing"

	"greenloop/contexts/engagement/reward-ledger/ports"
	httptransport "greenloop/contexts/engagement/reward-ledger/transport/http"
)

func TestModuleRedeemFlow(t *testing.T) {
	module := NewInMemoryModule([]ports.UserProjection{
		{UserID: "user_1", DisplayName: "Ana", Points: 120},
	}, nil, nil)
	ctx := context.Background()

	created, err := module.Handler.CreateRewardHandler(ctx, httptransport.CreateRewardRequest{
		Title:      "Tote Bag",
		CostPoints: 30,
		Stock:      2,
	})
	if err != nil {
		t.Fatalf("create reward failed: %v", err)
	}

	redeemed, err := module.Handler.RedeemHandler(ctx, "req-1", "user_1", httptransport.RedeemRequest{
		RewardID: created.Data.RewardID,
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if redeemed.Data.RemainingPoints != 90 {
		t.Fatalf("expected 90 points left, got %d", redeemed.Data.RemainingPoints)
	}

	replay, err := module.Handler.RedeemHandler(ctx, "req-1", "user_1", httptransport.RedeemRequest{
		RewardID: created.Data.RewardID,
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !replay.Replayed || replay.Data.ReceiptID != redeemed.Data.ReceiptID {
		t.Fatalf("expected replayed receipt, got %+v", replay)
	}

	receipts, err := module.Handler.ListReceiptsHandler(ctx, "user_1", 0)
	if err != nil {
		t.Fatalf("list receipts failed: %v", err)
	}
	if len(receipts.Data) != 1 {
		t.Fatalf("expected one receipt, got %d", len(receipts.Data))
	}

	progress, err := module.Handler.GetProgressHandler(ctx, "user_1")
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if progress.Data.Points != 90 || progress.Data.Redemptions != 1 {
		t.Fatalf("unexpected progress: %+v", progress.Data)
	}
}
