package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"greenloop/contexts/engagement/scoring-engine/domain/carbon"
	domainerrors "greenloop/contexts/engagement/scoring-engine/domain/errors"
	"greenloop/contexts/engagement/scoring-engine/domain/rules"
	"greenloop/contexts/engagement/scoring-engine/ports"
	"greenloop/internal/shared/events"
)

const (
	sourceService = "scoring-engine"

	EventTypeBadgeEarned = "engagement.badge_earned"
	EventTypeCarbonSaved = "engagement.carbon_saved"
)

type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Latch  *UserLatch
	Logger *slog.Logger
}

type RecordActionInput struct {
	UserID     string
	ActionKind string
	SourceID   string
}

type ActionResult struct {
	User        ports.User
	PointsDelta int
	NewBadges   []string
	Duplicate   bool
}

type RecordBillInput struct {
	UserID      string
	Utility     string
	Period      string
	Consumption float64
	Cost        float64
	// EntryID is an optional client-supplied identifier making retried
	// submissions idempotent. Left empty, a fresh id is generated.
	EntryID string
}

type BillResult struct {
	ActionResult
	Bill        ports.UtilityBill
	CarbonDelta float64
}

type UtilityBreakdown struct {
	Utility     carbon.Utility
	Unit        string
	CarbonSaved float64
	BillCount   int
}

type FootprintSummary struct {
	UserID           string
	TotalCarbonSaved float64
	Breakdown        []UtilityBreakdown
	Impacts          carbon.Impacts
}

// EventKey derives the stable idempotency key identifying one physical
// action. Awarding the same key twice is a no-op.
func EventKey(userID string, kind rules.ActionKind, sourceID string) string {
	return userID + "|" + string(kind) + "|" + sourceID
}

// RecordAction classifies the action, applies its point award once, and
// re-evaluates badges against the updated state.
func (s Service) RecordAction(ctx context.Context, input RecordActionInput) (ActionResult, error) {
	userID := strings.TrimSpace(input.UserID)
	sourceID := strings.TrimSpace(input.SourceID)
	if userID == "" || sourceID == "" {
		return ActionResult{}, domainerrors.ErrInvalidRequest
	}
	kind, ok := rules.ParseActionKind(input.ActionKind)
	if !ok {
		return ActionResult{}, domainerrors.ErrUnknownAction
	}
	if kind == rules.ActionBillLogged {
		// Bill awards carry consumption data and go through RecordUtilityBill.
		return ActionResult{}, domainerrors.ErrInvalidRequest
	}
	rule, _ := rules.RuleFor(kind)

	unlock := s.lockUser(userID)
	defer unlock()

	event := ports.ScoringEvent{
		EventID:    EventKey(userID, kind, sourceID),
		UserID:     userID,
		ActionKind: kind,
		SourceID:   sourceID,
		Points:     rule.Points,
		CreatedAt:  s.now(),
	}
	user, duplicate, err := s.Repo.ApplyAward(ctx, event)
	if err != nil {
		return ActionResult{}, err
	}
	if duplicate {
		return ActionResult{User: user, Duplicate: true}, nil
	}

	user, newBadges, err := s.evaluateBadges(ctx, user)
	if err != nil {
		return ActionResult{}, err
	}

	ResolveLogger(s.Logger).Info("scoring action awarded",
		"event", "scoring_action_awarded",
		"module", "engagement/scoring-engine",
		"layer", "application",
		"user_id", userID,
		"action_kind", string(kind),
		"points_delta", rule.Points,
		"total_points", user.Points,
		"level", user.Level,
		"new_badges", len(newBadges),
	)
	return ActionResult{
		User:        user,
		PointsDelta: rule.Points,
		NewBadges:   newBadges,
	}, nil
}

// RecordUtilityBill appends an immutable consumption record, derives the
// carbon delta against the previous reading of the same utility, and
// awards reduction points through the same idempotent pipeline as any
// other action.
func (s Service) RecordUtilityBill(ctx context.Context, input RecordBillInput) (BillResult, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" || strings.TrimSpace(input.Period) == "" {
		return BillResult{}, domainerrors.ErrInvalidRequest
	}
	utility, ok := carbon.ParseUtility(input.Utility)
	if !ok {
		return BillResult{}, domainerrors.ErrUnknownUtility
	}
	if input.Consumption < 0 || input.Cost < 0 {
		return BillResult{}, domainerrors.ErrInvalidQuantity
	}

	unlock := s.lockUser(userID)
	defer unlock()

	previous, hasPrevious, err := s.Repo.LatestBill(ctx, userID, utility)
	if err != nil {
		return BillResult{}, err
	}

	// The first reading establishes the baseline, not a saving.
	carbonDelta := 0.0
	points := 0
	if hasPrevious {
		carbonDelta, err = carbon.ComputeDelta(utility, previous.Consumption, input.Consumption)
		if err != nil {
			return BillResult{}, err
		}
		points = rules.BillPoints(previous.Consumption, input.Consumption)
	}

	entryID := strings.TrimSpace(input.EntryID)
	if entryID == "" {
		entryID, err = s.IDGen.NewID(ctx)
		if err != nil {
			return BillResult{}, err
		}
	}

	now := s.now()
	bill := ports.UtilityBill{
		BillID:      entryID,
		UserID:      userID,
		Utility:     utility,
		Period:      strings.TrimSpace(input.Period),
		Consumption: input.Consumption,
		Unit:        utility.Unit(),
		Cost:        input.Cost,
		CarbonDelta: carbonDelta,
		CreatedAt:   now,
	}
	event := ports.ScoringEvent{
		EventID:     EventKey(userID, rules.ActionBillLogged, entryID),
		UserID:      userID,
		ActionKind:  rules.ActionBillLogged,
		SourceID:    entryID,
		Points:      points,
		CarbonDelta: carbonDelta,
		CreatedAt:   now,
	}

	var records []ports.OutboxRecord
	if carbonDelta > 0 {
		record, err := s.buildOutboxRecord(ctx, EventTypeCarbonSaved, userID, map[string]any{
			"utility":         string(utility),
			"period":          bill.Period,
			"carbon_saved_kg": carbonDelta,
			"points_earned":   points,
		}, now)
		if err != nil {
			return BillResult{}, err
		}
		records = append(records, record)
	}

	user, duplicate, err := s.Repo.CreateBillWithAward(ctx, bill, event, records)
	if err != nil {
		return BillResult{}, err
	}
	result := BillResult{
		ActionResult: ActionResult{User: user, Duplicate: duplicate},
		Bill:         bill,
		CarbonDelta:  carbonDelta,
	}
	if duplicate {
		return result, nil
	}
	result.PointsDelta = points

	user, newBadges, err := s.evaluateBadges(ctx, user)
	if err != nil {
		return BillResult{}, err
	}
	result.User = user
	result.NewBadges = newBadges

	ResolveLogger(s.Logger).Info("utility bill recorded",
		"event", "scoring_bill_recorded",
		"module", "engagement/scoring-engine",
		"layer", "application",
		"user_id", userID,
		"utility", string(utility),
		"carbon_delta_kg", carbonDelta,
		"points_delta", points,
		"total_points", user.Points,
		"level", user.Level,
	)
	return result, nil
}

func (s Service) GetUserStanding(ctx context.Context, userID string) (ports.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ports.User{}, domainerrors.ErrInvalidRequest
	}
	return s.Repo.GetUser(ctx, userID)
}

// GetLeaderboard ranks users by the metric descending; ties resolve to
// the earlier account creation. An empty metric defaults to points.
func (s Service) GetLeaderboard(ctx context.Context, metric string, limit int) ([]ports.LeaderboardEntry, error) {
	parsed := ports.Metric(strings.ToLower(strings.TrimSpace(metric)))
	if parsed == "" {
		parsed = ports.MetricPoints
	}
	switch parsed {
	case ports.MetricPoints, ports.MetricLevel, ports.MetricCarbonSaved:
	default:
		return nil, domainerrors.ErrUnknownMetric
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	return s.Repo.ListStandings(ctx, parsed, limit)
}

func (s Service) ListBills(ctx context.Context, userID string, utility string, limit int) ([]ports.UtilityBill, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	var parsed carbon.Utility
	if strings.TrimSpace(utility) != "" {
		var ok bool
		parsed, ok = carbon.ParseUtility(utility)
		if !ok {
			return nil, domainerrors.ErrUnknownUtility
		}
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.Repo.ListBills(ctx, userID, parsed, limit)
}

// GetCarbonFootprint summarizes cumulative savings per utility together
// with everyday equivalents of the user's total.
func (s Service) GetCarbonFootprint(ctx context.Context, userID string) (FootprintSummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return FootprintSummary{}, domainerrors.ErrInvalidRequest
	}
	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return FootprintSummary{}, err
	}

	utilities := []carbon.Utility{carbon.UtilityElectricity, carbon.UtilityWater, carbon.UtilityGas}
	breakdown := make([]UtilityBreakdown, 0, len(utilities))
	for _, utility := range utilities {
		bills, err := s.Repo.ListBills(ctx, userID, utility, 0)
		if err != nil {
			return FootprintSummary{}, err
		}
		// Utilities the user never logged stay out of the breakdown.
		if len(bills) == 0 {
			continue
		}
		var saved float64
		for _, bill := range bills {
			saved += bill.CarbonDelta
		}
		breakdown = append(breakdown, UtilityBreakdown{
			Utility:     utility,
			Unit:        utility.Unit(),
			CarbonSaved: saved,
			BillCount:   len(bills),
		})
	}

	return FootprintSummary{
		UserID:           userID,
		TotalCarbonSaved: user.CarbonSaved,
		Breakdown:        breakdown,
		Impacts:          carbon.EquivalentImpacts(user.CarbonSaved),
	}, nil
}

// evaluateBadges grants every unheld badge whose predicate holds for the
// user's current persisted state. Safe to call after any mutation.
func (s Service) evaluateBadges(ctx context.Context, user ports.User) (ports.User, []string, error) {
	counts, err := s.Repo.ActivityCounts(ctx, user.UserID)
	if err != nil {
		return ports.User{}, nil, err
	}
	snapshot := rules.Snapshot{
		Points:          user.Points,
		Level:           user.Level,
		CarbonSaved:     user.CarbonSaved,
		Posts:           counts.Posts,
		Comments:        counts.Comments,
		Reports:         counts.Reports,
		ReportsVerified: counts.ReportsVerified,
		Bills:           counts.Bills,
	}
	earned := rules.EvaluateBadges(user.BadgeKeys(), snapshot)
	if len(earned) == 0 {
		return user, nil, nil
	}

	now := s.now()
	grants := make([]ports.BadgeGrant, 0, len(earned))
	records := make([]ports.OutboxRecord, 0, len(earned))
	for _, key := range earned {
		grants = append(grants, ports.BadgeGrant{BadgeKey: key, GrantedAt: now})
		def, _ := rules.BadgeByKey(key)
		record, err := s.buildOutboxRecord(ctx, EventTypeBadgeEarned, user.UserID, map[string]any{
			"badge_key":   key,
			"badge_label": def.Label,
		}, now)
		if err != nil {
			return ports.User{}, nil, err
		}
		records = append(records, record)
	}

	updated, err := s.Repo.GrantBadges(ctx, user.UserID, grants, records)
	if err != nil {
		return ports.User{}, nil, err
	}
	return updated, earned, nil
}

func (s Service) buildOutboxRecord(ctx context.Context, eventType string, userID string, payload map[string]any, at time.Time) (ports.OutboxRecord, error) {
	id, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.OutboxRecord{}, err
	}
	body, err := json.Marshal(events.Envelope{
		EventID:        id,
		EventType:      eventType,
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
		EventType:    eventType,
		PartitionKey: userID,
		Payload:      body,
		CreatedAt:    at,
	}, nil
}

func (s Service) lockUser(userID string) func() {
	if s.Latch == nil {
		return func() {}
	}
	return s.Latch.Lock(userID)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
