package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"greenloop/contexts/engagement/scoring-engine/application"
	"greenloop/contexts/engagement/scoring-engine/ports"
	httptransport "greenloop/contexts/engagement/scoring-engine/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func standingDTO(user ports.User) httptransport.StandingDTO {
	return httptransport.StandingDTO{
		UserID:      user.UserID,
		DisplayName: user.DisplayName,
		Points:      user.Points,
		Level:       user.Level,
		CarbonSaved: user.CarbonSaved,
		Badges:      user.BadgeKeys(),
	}
}

func billDTO(bill ports.UtilityBill) httptransport.BillDTO {
	return httptransport.BillDTO{
		BillID:      bill.BillID,
		UserID:      bill.UserID,
		Utility:     string(bill.Utility),
		Period:      bill.Period,
		Consumption: bill.Consumption,
		Unit:        bill.Unit,
		Cost:        bill.Cost,
		CarbonDelta: bill.CarbonDelta,
		CreatedAt:   bill.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h Handler) RecordActionHandler(ctx context.Context, req httptransport.RecordActionRequest) (httptransport.RecordActionResponse, error) {
	result, err := h.Service.RecordAction(ctx, application.RecordActionInput{
		UserID:     req.UserID,
		ActionKind: req.ActionKind,
		SourceID:   req.SourceID,
	})
	if err != nil {
		return httptransport.RecordActionResponse{}, err
	}
	resp := httptransport.RecordActionResponse{
		Status:    "success",
		Duplicate: result.Duplicate,
	}
	resp.Data.StandingDTO = standingDTO(result.User)
	resp.Data.PointsDelta = result.PointsDelta
	resp.Data.NewBadges = emptyIfNil(result.NewBadges)
	return resp, nil
}

func (h Handler) RecordBillHandler(ctx context.Context, req httptransport.RecordBillRequest) (httptransport.RecordBillResponse, error) {
	result, err := h.Service.RecordUtilityBill(ctx, application.RecordBillInput{
		UserID:      req.UserID,
		Utility:     req.Utility,
		Period:      req.Period,
		Consumption: req.Consumption,
		Cost:        req.Cost,
		EntryID:     req.EntryID,
	})
	if err != nil {
		return httptransport.RecordBillResponse{}, err
	}
	resp := httptransport.RecordBillResponse{
		Status:    "success",
		Duplicate: result.Duplicate,
	}
	resp.Data.Bill = billDTO(result.Bill)
	resp.Data.CarbonDelta = result.CarbonDelta
	resp.Data.PointsDelta = result.PointsDelta
	resp.Data.StandingDTO = standingDTO(result.User)
	resp.Data.NewBadges = emptyIfNil(result.NewBadges)
	return resp, nil
}

func (h Handler) GetStandingHandler(ctx context.Context, userID string) (httptransport.StandingResponse, error) {
	user, err := h.Service.GetUserStanding(ctx, userID)
	if err != nil {
		return httptransport.StandingResponse{}, err
	}
	return httptransport.StandingResponse{
		Status: "success",
		Data:   standingDTO(user),
	}, nil
}

func (h Handler) GetLeaderboardHandler(ctx context.Context, metric string, limit int) (httptransport.LeaderboardResponse, error) {
	entries, err := h.Service.GetLeaderboard(ctx, metric, limit)
	if err != nil {
		return httptransport.LeaderboardResponse{}, err
	}
	if metric == "" {
		metric = string(ports.MetricPoints)
	}
	resp := httptransport.LeaderboardResponse{
		Status: "success",
		Metric: metric,
		Data:   make([]httptransport.LeaderboardEntryDTO, 0, len(entries)),
	}
	for _, entry := range entries {
		resp.Data = append(resp.Data, httptransport.LeaderboardEntryDTO{
			Rank:        entry.Rank,
			UserID:      entry.UserID,
			DisplayName: entry.DisplayName,
			Points:      entry.Points,
			Level:       entry.Level,
			CarbonSaved: entry.CarbonSaved,
			BadgeCount:  entry.BadgeCount,
		})
	}
	return resp, nil
}

func (h Handler) ListBillsHandler(ctx context.Context, userID string, utility string, limit int) (httptransport.BillListResponse, error) {
	bills, err := h.Service.ListBills(ctx, userID, utility, limit)
	if err != nil {
		return httptransport.BillListResponse{}, err
	}
	resp := httptransport.BillListResponse{
		Status: "success",
		Data:   make([]httptransport.BillDTO, 0, len(bills)),
	}
	for _, bill := range bills {
		resp.Data = append(resp.Data, billDTO(bill))
	}
	return resp, nil
}

func (h Handler) GetFootprintHandler(ctx context.Context, userID string) (httptransport.FootprintResponse, error) {
	summary, err := h.Service.GetCarbonFootprint(ctx, userID)
	if err != nil {
		return httptransport.FootprintResponse{}, err
	}
	resp := httptransport.FootprintResponse{Status: "success"}
	resp.Data.UserID = summary.UserID
	resp.Data.TotalCarbonSaved = summary.TotalCarbonSaved
	resp.Data.Breakdown = make([]httptransport.UtilityBreakdownDTO, 0, len(summary.Breakdown))
	for _, item := range summary.Breakdown {
		resp.Data.Breakdown = append(resp.Data.Breakdown, httptransport.UtilityBreakdownDTO{
			Utility:     string(item.Utility),
			Unit:        item.Unit,
			CarbonSaved: item.CarbonSaved,
			BillCount:   item.BillCount,
		})
	}
	resp.Data.Impacts.TreesPlanted = summary.Impacts.TreesPlanted
	resp.Data.Impacts.CarMilesAvoided = summary.Impacts.CarMilesAvoided
	resp.Data.Impacts.PlasticBottlesRecycled = summary.Impacts.PlasticBottlesRecycled
	resp.Data.Impacts.LEDBulbHours = summary.Impacts.LEDBulbHours
	return resp, nil
}

func emptyIfNil(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}
