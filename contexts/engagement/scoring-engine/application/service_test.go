package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"greenloop/contexts/engagement/scoring-engine/adapters/memory"
	"greenloop/contexts/engagement/scoring-engine/domain/carbon"
	domainerrors "greenloop/contexts/engagement/scoring-engine/domain/errors"
	"greenloop/contexts/engagement/scoring-engine/ports"
)

func newTestService(store *memory.Store) Service {
	return Service{
		Repo:  store,
		Clock: store,
		IDGen: store,
		Latch: NewUserLatch(),
	}
}

func seedUser(id string, points int, createdAt time.Time) ports.User {
	return ports.User{
		UserID:      id,
		DisplayName: id,
		Points:      points,
		CreatedAt:   createdAt,
	}
}

func TestRecordActionAwardsOnce(t *testing.T) {
	store := memory.NewStore([]ports.User{seedUser("user_1", 0, time.Now())})
	service := newTestService(store)

	input := RecordActionInput{UserID: "user_1", ActionKind: "post_created", SourceID: "post_42"}
	first, err := service.RecordAction(context.Background(), input)
	if err != nil {
		t.Fatalf("first award failed: %v", err)
	}
	if first.Duplicate || first.PointsDelta != 10 || first.User.Points != 10 {
		t.Fatalf("unexpected first award: %+v", first)
	}

	second, err := service.RecordAction(context.Background(), input)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.Duplicate {
		t.Fatalf("expected duplicate flag on replay")
	}
	if second.User.Points != 10 {
		t.Fatalf("replay changed points: %d", second.User.Points)
	}
}

func TestRecordActionRejectsUnknownKind(t *testing.T) {
	store := memory.NewStore([]ports.User{seedUser("user_1", 0, time.Now())})
	service := newTestService(store)

	_, err := service.RecordAction(context.Background(), RecordActionInput{
		UserID:     "user_1",
		ActionKind: "login",
		SourceID:   "session_1",
	})
	if !errors.Is(err, domainerrors.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestRecordActionRejectsBillKind(t *testing.T) {
	store := memory.NewStore([]ports.User{seedUser("user_1", 0, time.Now())})
	service := newTestService(store)

	_, err := service.RecordAction(context.Background(), RecordActionInput{
		UserID:     "user_1",
		ActionKind: "bill_logged",
		SourceID:   "bill_1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestRecordActionLevelsUp(t *testing.T) {
	store := memory.NewStore([]ports.User{seedUser("user_1", 95, time.Now())})
	service := newTestService(store)

	result, err := service.RecordAction(context.Background(), RecordActionInput{
		UserID:     "user_1",
		ActionKind: "post_created",
		SourceID:   "post_1",
	})
	if err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if result.User.Points != 105 || result.User.Level != 2 {
		t.Fatalf("expected level 2 at 105 points, got level %d at %d", result.User.Level, result.User.Points)
	}
}

func TestRecordActionGrantsFirstPostBadge(t *testing.T) {
	store := memory.NewStore([]ports.User{seedUser("user_1", 0, time.Now())})
	service := newTestService(store)

	result, err := service.RecordAction(context.Background(), RecordActionInput{
		UserID:     "user_1",
		ActionKind: "post_created",
		SourceID:   "post_1",
	})
	if err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if len(result.NewBadges) != 1 || result.NewBadges[0] != "first_post" {
		t.Fatalf("expected first_post badge, got %v", result.NewBadges)
	}

	// A second post must not re-grant the badge.
	again, err := service.RecordAction(context.Background(), RecordActionInput{
		UserID:     "user_1",
		ActionKind: "post_created",
		SourceID:   "post_2",
	})
	if err != nil {
		t.Fatalf("second award failed: %v", err)
	}
	for _, key := range again.NewBadges {
		if key == "first_post" {
			t.Fatalf("first_post granted twice")
		}
	}
}

func TestRecordUtilityBillBaselineThenReduction(t *testing.T) {
	store := memory.NewStore([]ports.User{seedUser("user_1", 0, time.Now())})
	service := newTestService(store)

	baseline, err := service.RecordUtilityBill(context.Background(), RecordBillInput{
		UserID:      "user_1",
		Utility:     "electricity",
		Period:      "2026-01",
		Consumption: 100,
	})
	if err != nil {
		t.Fatalf("baseline failed: %v", err)
	}
	if baseline.CarbonDelta != 0 || baseline.PointsDelta != 0 {
		t.Fatalf("baseline must not award: %+v", baseline)
	}

	reduced, err := service.RecordUtilityBill(context.Background(), RecordBillInput{
		UserID:      "user_1",
		Utility:     "electricity",
		Period:      "2026-02",
		Consumption: 80,
	})
	if err != nil {
		t.Fatalf("reduction failed: %v", err)
	}
	if reduced.CarbonDelta != 10 {
		t.Fatalf("expected 10 kg saved, got %v", reduced.CarbonDelta)
	}
	if reduced.PointsDelta != 20 {
		t.Fatalf("expected 20 points for a 20%% reduction, got %d", reduced.PointsDelta)
	}
	if reduced.User.CarbonSaved != 10 {
		t.Fatalf("expected cumulative 10 kg, got %v", reduced.User.CarbonSaved)
	}
}

func TestRecordUtilityBillIncreaseAwardsNothing(t *testing.T) {
	store := memory.NewStore([]ports.User{seedUser("user_1", 0, time.Now())})
	service := newTestService(store)

	if _, err := service.RecordUtilityBill(context.Background(), RecordBillInput{
		UserID: "user_1", Utility: "gas", Period: "2026-01", Consumption: 40,
	}); err != nil {
		t.Fatalf("baseline failed: %v", err)
	}

	increased, err := service.RecordUtilityBill(context.Background(), RecordBillInput{
		UserID: "user_1", Utility: "gas", Period: "2026-02", Consumption: 50,
	})
	if err != nil {
		t.Fatalf("increase failed: %v", err)
	}
	if increased.PointsDelta != 0 {
		t.Fatalf("increase must not award points, got %d", increased.PointsDelta)
	}
	if increased.CarbonDelta != -20 {
		t.Fatalf("expected -20 kg delta, got %v", increased.CarbonDelta)
	}
	if increased.User.Points != 0 {
		t.Fatalf("points must never go negative, got %d", increased.User.Points)
	}
}

func TestRecordUtilityBillReplayWithEntryID(t *testing.T) {
	store := memory.NewStore([]ports.User{seedUser("user_1", 0, time.Now())})
	service := newTestService(store)

	input := RecordBillInput{
		UserID:      "user_1",
		Utility:     "water",
		Period:      "2026-01",
		Consumption: 3000,
		EntryID:     "bill_jan",
	}
	if _, err := service.RecordUtilityBill(context.Background(), input); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	replay, err := service.RecordUtilityBill(context.Background(), input)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !replay.Duplicate {
		t.Fatalf("expected duplicate flag on replayed entry id")
	}

	bills, err := service.ListBills(context.Background(), "user_1", "", 0)
	if err != nil {
		t.Fatalf("list bills failed: %v", err)
	}
	if len(bills) != 1 {
		t.Fatalf("expected one stored bill, got %d", len(bills))
	}
}

func TestGetLeaderboardTieBreaksByCreation(t *testing.T) {
	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore([]ports.User{
		seedUser("user_b", 30, base.Add(time.Hour)),
		seedUser("user_a", 30, base),
		seedUser("user_c", 10, base.Add(2*time.Hour)),
	})
	service := newTestService(store)

	entries, err := service.GetLeaderboard(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].UserID != "user_a" || entries[1].UserID != "user_b" || entries[2].UserID != "user_c" {
		t.Fatalf("unexpected order: %s, %s, %s", entries[0].UserID, entries[1].UserID, entries[2].UserID)
	}
	if entries[0].Rank != 1 || entries[2].Rank != 3 {
		t.Fatalf("unexpected ranks: %+v", entries)
	}
}

func TestGetLeaderboardUnknownMetric(t *testing.T) {
	store := memory.NewStore(nil)
	service := newTestService(store)

	if _, err := service.GetLeaderboard(context.Background(), "karma", 10); !errors.Is(err, domainerrors.ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestGetCarbonFootprint(t *testing.T) {
	store := memory.NewStore([]ports.User{seedUser("user_1", 0, time.Now())})
	service := newTestService(store)

	readings := []struct {
		period      string
		consumption float64
	}{
		{"2026-01", 200},
		{"2026-02", 100},
	}
	for _, reading := range readings {
		if _, err := service.RecordUtilityBill(context.Background(), RecordBillInput{
			UserID:      "user_1",
			Utility:     "electricity",
			Period:      reading.period,
			Consumption: reading.consumption,
		}); err != nil {
			t.Fatalf("bill %s failed: %v", reading.period, err)
		}
	}

	summary, err := service.GetCarbonFootprint(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("footprint failed: %v", err)
	}
	if summary.TotalCarbonSaved != 50 {
		t.Fatalf("expected 50 kg total, got %v", summary.TotalCarbonSaved)
	}
	if len(summary.Breakdown) != 1 {
		t.Fatalf("expected only logged utilities in the breakdown, got %+v", summary.Breakdown)
	}
	electricity := summary.Breakdown[0]
	if electricity.Utility != carbon.UtilityElectricity {
		t.Fatalf("unexpected breakdown entry: %+v", electricity)
	}
	if electricity.CarbonSaved != 50 || electricity.BillCount != 2 {
		t.Fatalf("unexpected electricity breakdown: %+v", electricity)
	}
}

func TestGetUserStandingUnknownUser(t *testing.T) {
	store := memory.NewStore(nil)
	service := newTestService(store)

	if _, err := service.GetUserStanding(context.Background(), "ghost"); !errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
