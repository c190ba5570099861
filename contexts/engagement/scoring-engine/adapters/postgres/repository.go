package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"greenloop/contexts/engagement/scoring-engine/domain/carbon"
	domainerrors "greenloop/contexts/engagement/scoring-engine/domain/errors"
	"greenloop/contexts/engagement/scoring-engine/domain/rules"
	"greenloop/contexts/engagement/scoring-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetUser(ctx context.Context, userID string) (ports.User, error) {
	return r.getUser(r.db.WithContext(ctx), userID)
}

func (r *Repository) getUser(tx *gorm.DB, userID string) (ports.User, error) {
	var row userModel
	err := tx.Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, domainerrors.ErrUserNotFound
		}
		return ports.User{}, err
	}

	var badgeRows []userBadgeModel
	if err := tx.
		Where("user_id = ?", userID).
		Order("granted_at ASC, badge_key ASC").
		Find(&badgeRows).
		Error; err != nil {
		return ports.User{}, err
	}

	user := row.toPort()
	user.Badges = make([]ports.BadgeGrant, 0, len(badgeRows))
	for _, badge := range badgeRows {
		user.Badges = append(user.Badges, ports.BadgeGrant{
			BadgeKey:  badge.BadgeKey,
			GrantedAt: badge.GrantedAt.UTC(),
		})
	}
	return user, nil
}

func (r *Repository) ApplyAward(ctx context.Context, event ports.ScoringEvent) (ports.User, bool, error) {
	duplicate := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := scoringEventModelFromPort(event)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				duplicate = true
				return nil
			}
			return err
		}
		return applyUserDeltas(tx, event.UserID, event.Points, event.CarbonDelta, event.CreatedAt)
	})
	if err != nil {
		return ports.User{}, false, err
	}
	user, err := r.GetUser(ctx, event.UserID)
	if err != nil {
		return ports.User{}, false, err
	}
	return user, duplicate, nil
}

func (r *Repository) GrantBadges(ctx context.Context, userID string, grants []ports.BadgeGrant, records []ports.OutboxRecord) (ports.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, grant := range grants {
			row := userBadgeModel{
				UserID:    userID,
				BadgeKey:  grant.BadgeKey,
				GrantedAt: grant.GrantedAt.UTC(),
			}
			if err := tx.
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_key"}},
					DoNothing: true,
				}).
				Create(&row).
				Error; err != nil {
				return err
			}
		}
		return appendOutbox(tx, records)
	})
	if err != nil {
		return ports.User{}, err
	}
	return r.GetUser(ctx, userID)
}

func (r *Repository) ActivityCounts(ctx context.Context, userID string) (ports.ActivityCounts, error) {
	type kindCount struct {
		ActionKind string
		Total      int64
	}
	var rows []kindCount
	if err := r.db.WithContext(ctx).
		Model(&scoringEventModel{}).
		Select("action_kind, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("action_kind").
		Scan(&rows).
		Error; err != nil {
		return ports.ActivityCounts{}, err
	}

	var counts ports.ActivityCounts
	for _, row := range rows {
		switch rules.ActionKind(row.ActionKind) {
		case rules.ActionPostCreated:
			counts.Posts = int(row.Total)
		case rules.ActionCommentAdded:
			counts.Comments = int(row.Total)
		case rules.ActionReportFiled:
			counts.Reports = int(row.Total)
		case rules.ActionReportVerified:
			counts.ReportsVerified = int(row.Total)
		}
	}

	var bills int64
	if err := r.db.WithContext(ctx).
		Model(&billModel{}).
		Where("user_id = ?", userID).
		Count(&bills).
		Error; err != nil {
		return ports.ActivityCounts{}, err
	}
	counts.Bills = int(bills)
	return counts, nil
}

func (r *Repository) LatestBill(ctx context.Context, userID string, utility carbon.Utility) (ports.UtilityBill, bool, error) {
	var row billModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND utility = ?", userID, string(utility)).
		Order("created_at DESC, bill_id DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UtilityBill{}, false, nil
		}
		return ports.UtilityBill{}, false, err
	}
	return row.toPort(), true, nil
}

func (r *Repository) CreateBillWithAward(ctx context.Context, bill ports.UtilityBill, event ports.ScoringEvent, records []ports.OutboxRecord) (ports.User, bool, error) {
	duplicate := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		billRow := billModelFromPort(bill)
		if err := tx.Create(&billRow).Error; err != nil {
			if isUniqueViolation(err) {
				duplicate = true
				return nil
			}
			return err
		}
		eventRow := scoringEventModelFromPort(event)
		if err := tx.Create(&eventRow).Error; err != nil {
			if isUniqueViolation(err) {
				duplicate = true
				return nil
			}
			return err
		}
		if err := applyUserDeltas(tx, event.UserID, event.Points, event.CarbonDelta, event.CreatedAt); err != nil {
			return err
		}
		return appendOutbox(tx, records)
	})
	if err != nil {
		return ports.User{}, false, err
	}
	user, err := r.GetUser(ctx, bill.UserID)
	if err != nil {
		return ports.User{}, false, err
	}
	return user, duplicate, nil
}

func (r *Repository) ListBills(ctx context.Context, userID string, utility carbon.Utility, limit int) ([]ports.UtilityBill, error) {
	tx := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, bill_id DESC")
	if utility != "" {
		tx = tx.Where("utility = ?", string(utility))
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []billModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]ports.UtilityBill, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) ListStandings(ctx context.Context, metric ports.Metric, limit int) ([]ports.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	column := "points"
	switch metric {
	case ports.MetricLevel:
		column = "level"
	case ports.MetricCarbonSaved:
		column = "carbon_saved"
	}

	var entries []ports.LeaderboardEntry
	// One transaction so the page and its badge counts come from a
	// single consistent snapshot.
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []userModel
		if err := tx.
			Order(column + " DESC, created_at ASC, user_id ASC").
			Limit(limit).
			Find(&rows).
			Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			entries = []ports.LeaderboardEntry{}
			return nil
		}

		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.UserID)
		}
		type badgeCount struct {
			UserID string
			Total  int64
		}
		var counts []badgeCount
		if err := tx.
			Model(&userBadgeModel{}).
			Select("user_id, COUNT(*) AS total").
			Where("user_id IN ?", ids).
			Group("user_id").
			Scan(&counts).
			Error; err != nil {
			return err
		}
		countByUser := make(map[string]int, len(counts))
		for _, count := range counts {
			countByUser[count.UserID] = int(count.Total)
		}

		entries = make([]ports.LeaderboardEntry, 0, len(rows))
		for i, row := range rows {
			entries = append(entries, ports.LeaderboardEntry{
				Rank:        i + 1,
				UserID:      row.UserID,
				DisplayName: row.DisplayName,
				Points:      row.Points,
				Level:       row.Level,
				CarbonSaved: row.CarbonSaved,
				BadgeCount:  countByUser[row.UserID],
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	// The outbox table is shared with the reward ledger; each relay
	// drains only the event types its context writes.
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND event_type IN ?", outboxStatusPending,
			[]string{"engagement.badge_earned", "engagement.carbon_saved"}).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	records := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toPort())
	}
	return records, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("outbox row %s not found", outboxID)
	}
	return nil
}

// applyUserDeltas increments the counters and re-derives the level from
// the committed total inside the caller's transaction.
func applyUserDeltas(tx *gorm.DB, userID string, points int, carbonDelta float64, at time.Time) error {
	result := tx.Model(&userModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"points":       gorm.Expr("GREATEST(points + ?, 0)", points),
			"carbon_saved": gorm.Expr("carbon_saved + ?", carbonDelta),
			"updated_at":   at.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}

	var row userModel
	if err := tx.Select("points").Where("user_id = ?", userID).First(&row).Error; err != nil {
		return err
	}
	return tx.Model(&userModel{}).
		Where("user_id = ?", userID).
		Update("level", rules.LevelFor(row.Points)).
		Error
}

func appendOutbox(tx *gorm.DB, records []ports.OutboxRecord) error {
	for _, record := range records {
		row := outboxModel{
			OutboxID:     record.OutboxID,
			EventType:    record.EventType,
			PartitionKey: record.PartitionKey,
			Payload:      record.Payload,
			Status:       outboxStatusPending,
			CreatedAt:    record.CreatedAt.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type userModel struct {
	UserID      string    `gorm:"column:user_id;primaryKey"`
	DisplayName string    `gorm:"column:display_name"`
	Points      int       `gorm:"column:points"`
	Level       int       `gorm:"column:level"`
	CarbonSaved float64   `gorm:"column:carbon_saved"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string {
	return "users"
}

func (m userModel) toPort() ports.User {
	return ports.User{
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Points:      m.Points,
		Level:       m.Level,
		CarbonSaved: m.CarbonSaved,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type scoringEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	UserID      string    `gorm:"column:user_id"`
	ActionKind  string    `gorm:"column:action_kind"`
	SourceID    string    `gorm:"column:source_id"`
	Points      int       `gorm:"column:points"`
	CarbonDelta float64   `gorm:"column:carbon_delta"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (scoringEventModel) TableName() string {
	return "scoring_events"
}

func scoringEventModelFromPort(event ports.ScoringEvent) scoringEventModel {
	return scoringEventModel{
		EventID:     event.EventID,
		UserID:      event.UserID,
		ActionKind:  string(event.ActionKind),
		SourceID:    event.SourceID,
		Points:      event.Points,
		CarbonDelta: event.CarbonDelta,
		CreatedAt:   event.CreatedAt.UTC(),
	}
}

type billModel struct {
	BillID      string    `gorm:"column:bill_id;primaryKey"`
	UserID      string    `gorm:"column:user_id"`
	Utility     string    `gorm:"column:utility"`
	Period      string    `gorm:"column:period"`
	Consumption float64   `gorm:"column:consumption"`
	Unit        string    `gorm:"column:unit"`
	Cost        float64   `gorm:"column:cost"`
	CarbonDelta float64   `gorm:"column:carbon_delta"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (billModel) TableName() string {
	return "utility_bills"
}

func billModelFromPort(bill ports.UtilityBill) billModel {
	return billModel{
		BillID:      bill.BillID,
		UserID:      bill.UserID,
		Utility:     string(bill.Utility),
		Period:      bill.Period,
		Consumption: bill.Consumption,
		Unit:        bill.Unit,
		Cost:        bill.Cost,
		CarbonDelta: bill.CarbonDelta,
		CreatedAt:   bill.CreatedAt.UTC(),
	}
}

func (m billModel) toPort() ports.UtilityBill {
	return ports.UtilityBill{
		BillID:      m.BillID,
		UserID:      m.UserID,
		Utility:     carbon.Utility(m.Utility),
		Period:      m.Period,
		Consumption: m.Consumption,
		Unit:        m.Unit,
		Cost:        m.Cost,
		CarbonDelta: m.CarbonDelta,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

type userBadgeModel struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	BadgeKey  string    `gorm:"column:badge_key;primaryKey"`
	GrantedAt time.Time `gorm:"column:granted_at"`
}

func (userBadgeModel) TableName() string {
	return "user_badges"
}

type outboxModel struct {
	OutboxID     string    `gorm:"column:outbox_id;primaryKey"`
	EventType    string    `gorm:"column:event_type"`
	PartitionKey string    `gorm:"column:partition_key"`
	Payload      []byte    `gorm:"column:payload"`
	Status       string    `gorm:"column:status"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	SentAt       time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "engagement_outbox"
}

func (m outboxModel) toPort() ports.OutboxRecord {
	return ports.OutboxRecord{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      m.Payload,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
