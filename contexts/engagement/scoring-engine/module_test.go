package scoringengine

import (
	"context"
	"testing"
	"time"

	"greenloop/contexts/engagement/scoring-engine/ports"
	httptransport "greenloop/contexts/engagement/scoring-engine/transport/http"
)

func seededModule(t *testing.T) Module {
	t.Helper()
	return NewInMemoryModule([]ports.User{
		{UserID: "user_1", DisplayName: "Ana", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{UserID: "user_2", DisplayName: "Ben", CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}, nil)
}

func TestModuleActionFlow(t *testing.T) {
	module := seededModule(t)
	ctx := context.Background()

	resp, err := module.Handler.RecordActionHandler(ctx, httptransport.RecordActionRequest{
		UserID:     "user_1",
		ActionKind: "post_created",
		SourceID:   "post_1",
	})
	if err != nil {
		t.Fatalf("record action failed: %v", err)
	}
	if resp.Data.Points != 10 || resp.Data.PointsDelta != 10 {
		t.Fatalf("expected 10 points, got %+v", resp.Data)
	}
	if len(resp.Data.NewBadges) != 1 || resp.Data.NewBadges[0] != "first_post" {
		t.Fatalf("expected first_post badge, got %v", resp.Data.NewBadges)
	}

	replay, err := module.Handler.RecordActionHandler(ctx, httptransport.RecordActionRequest{
		UserID:     "user_1",
		ActionKind: "post_created",
		SourceID:   "post_1",
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !replay.Duplicate || replay.Data.Points != 10 {
		t.Fatalf("expected duplicate no-op, got %+v", replay)
	}
}

func TestModuleBillAndFootprintFlow(t *testing.T) {
	module := seededModule(t)
	ctx := context.Background()

	if _, err := module.Handler.RecordBillHandler(ctx, httptransport.RecordBillRequest{
		UserID: "user_1", Utility: "electricity", Period: "2026-01", Consumption: 100,
	}); err != nil {
		t.Fatalf("baseline bill failed: %v", err)
	}
	resp, err := module.Handler.RecordBillHandler(ctx, httptransport.RecordBillRequest{
		UserID: "user_1", Utility: "electricity", Period: "2026-02", Consumption: 80,
	})
	if err != nil {
		t.Fatalf("reduced bill failed: %v", err)
	}
	if resp.Data.CarbonDelta != 10 {
		t.Fatalf("expected 10 kg saved, got %v", resp.Data.CarbonDelta)
	}
	if resp.Data.PointsDelta != 20 {
		t.Fatalf("expected 20 reduction points, got %d", resp.Data.PointsDelta)
	}

	footprint, err := module.Handler.GetFootprintHandler(ctx, "user_1")
	if err != nil {
		t.Fatalf("footprint failed: %v", err)
	}
	if footprint.Data.TotalCarbonSaved != 10 {
		t.Fatalf("expected 10 kg total, got %v", footprint.Data.TotalCarbonSaved)
	}
	if len(footprint.Data.Breakdown) != 1 || footprint.Data.Breakdown[0].Utility != "electricity" {
		t.Fatalf("unexpected breakdown: %+v", footprint.Data.Breakdown)
	}
}

func TestModuleLeaderboardFlow(t *testing.T) {
	module := seededModule(t)
	ctx := context.Background()

	if _, err := module.Handler.RecordActionHandler(ctx, httptransport.RecordActionRequest{
		UserID: "user_2", ActionKind: "report_filed", SourceID: "rep_1",
	}); err != nil {
		t.Fatalf("record action failed: %v", err)
	}

	board, err := module.Handler.GetLeaderboardHandler(ctx, "", 0)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if board.Metric != "points" {
		t.Fatalf("expected default metric points, got %q", board.Metric)
	}
	if len(board.Data) != 2 || board.Data[0].UserID != "user_2" || board.Data[0].Rank != 1 {
		t.Fatalf("unexpected ranking: %+v", board.Data)
	}
}
