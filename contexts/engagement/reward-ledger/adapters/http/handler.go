package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"greenloop/contexts/engagement/reward-ledger/application"
	"greenloop/contexts/engagement/reward-ledger/ports"
	httptransport "greenloop/contexts/engagement/reward-ledger/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func rewardDTO(reward ports.Reward, eligible bool) httptransport.RewardDTO {
	return httptransport.RewardDTO{
		RewardID:    reward.RewardID,
		Title:       reward.Title,
		Description: reward.Description,
		CostPoints:  reward.CostPoints,
		Stock:       reward.Stock,
		Eligible:    eligible,
	}
}

func receiptDTO(receipt ports.Receipt) httptransport.ReceiptDTO {
	return httptransport.ReceiptDTO{
		ReceiptID:       receipt.ReceiptID,
		RewardID:        receipt.RewardID,
		RewardTitle:     receipt.RewardTitle,
		UserID:          receipt.UserID,
		CostPoints:      receipt.CostPoints,
		RemainingPoints: receipt.RemainingPoints,
		RedeemedAt:      receipt.RedeemedAt.UTC().Format(time.RFC3339),
	}
}

func (h Handler) ListRewardsHandler(ctx context.Context, userID string) (httptransport.RewardListResponse, error) {
	views, err := h.Service.ListRewards(ctx, userID)
	if err != nil {
		return httptransport.RewardListResponse{}, err
	}
	resp := httptransport.RewardListResponse{
		Status: "success",
		Data:   make([]httptransport.RewardDTO, 0, len(views)),
	}
	for _, view := range views {
		resp.Data = append(resp.Data, rewardDTO(view.Reward, view.Eligible))
	}
	return resp, nil
}

func (h Handler) CreateRewardHandler(ctx context.Context, req httptransport.CreateRewardRequest) (httptransport.RewardResponse, error) {
	reward, err := h.Service.CreateReward(ctx, application.CreateRewardInput{
		Title:       req.Title,
		Description: req.Description,
		CostPoints:  req.CostPoints,
		Stock:       req.Stock,
	})
	if err != nil {
		return httptransport.RewardResponse{}, err
	}
	return httptransport.RewardResponse{
		Status: "success",
		Data:   rewardDTO(reward, false),
	}, nil
}

func (h Handler) UpdateStockHandler(ctx context.Context, rewardID string, req httptransport.UpdateStockRequest) (httptransport.RewardResponse, error) {
	reward, err := h.Service.UpdateStock(ctx, rewardID, req.Stock)
	if err != nil {
		return httptransport.RewardResponse{}, err
	}
	return httptransport.RewardResponse{
		Status: "success",
		Data:   rewardDTO(reward, false),
	}, nil
}

func (h Handler) RedeemHandler(ctx context.Context, idempotencyKey string, userID string, req httptransport.RedeemRequest) (httptransport.RedeemResponse, error) {
	result, err := h.Service.Redeem(ctx, idempotencyKey, userID, req.RewardID)
	if err != nil {
		return httptransport.RedeemResponse{}, err
	}
	return httptransport.RedeemResponse{
		Status:   "success",
		Replayed: result.Replayed,
		Data:     receiptDTO(result.Receipt),
	}, nil
}

func (h Handler) ListReceiptsHandler(ctx context.Context, userID string, limit int) (httptransport.ReceiptListResponse, error) {
	receipts, err := h.Service.ListReceipts(ctx, userID, limit)
	if err != nil {
		return httptransport.ReceiptListResponse{}, err
	}
	resp := httptransport.ReceiptListResponse{
		Status: "success",
		Data:   make([]httptransport.ReceiptDTO, 0, len(receipts)),
	}
	for _, receipt := range receipts {
		resp.Data = append(resp.Data, receiptDTO(receipt))
	}
	return resp, nil
}

func (h Handler) GetProgressHandler(ctx context.Context, userID string) (httptransport.ProgressResponse, error) {
	progress, err := h.Service.GetProgress(ctx, userID)
	if err != nil {
		return httptransport.ProgressResponse{}, err
	}
	resp := httptransport.ProgressResponse{Status: "success"}
	resp.Data.UserID = progress.User.UserID
	resp.Data.Points = progress.User.Points
	resp.Data.Level = progress.User.Level
	resp.Data.CarbonSaved = progress.User.CarbonSaved
	resp.Data.BadgeCount = progress.User.BadgeCount
	resp.Data.Redemptions = progress.Redemptions
	resp.Data.NextLevel = progress.NextLevel
	resp.Data.PointsToNextLevel = progress.PointsToNextLevel
	resp.Data.AffordableRewards = progress.AffordableRewards
	return resp, nil
}
