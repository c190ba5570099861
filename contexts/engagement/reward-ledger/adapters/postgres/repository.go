package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainerrors "greenloop/contexts/engagement/reward-ledger/domain/errors"
	"greenloop/contexts/engagement/reward-ledger/ports"
	"greenloop/internal/shared/leveling"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
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

func (r *Repository) ListRewards(ctx context.Context) ([]ports.Reward, error) {
	var rows []rewardModel
	if err := r.db.WithContext(ctx).
		Order("cost_points ASC, reward_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.Reward, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) GetReward(ctx context.Context, rewardID string) (ports.Reward, error) {
	var row rewardModel
	err := r.db.WithContext(ctx).Where("reward_id = ?", rewardID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Reward{}, domainerrors.ErrRewardNotFound
		}
		return ports.Reward{}, err
	}
	return row.toPort(), nil
}

func (r *Repository) CreateReward(ctx context.Context, reward ports.Reward) (ports.Reward, error) {
	row := rewardModelFromPort(reward)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ports.Reward{}, domainerrors.ErrInvalidReward
		}
		return ports.Reward{}, err
	}
	return reward, nil
}

func (r *Repository) UpdateStock(ctx context.Context, rewardID string, stock int) (ports.Reward, error) {
	result := r.db.WithContext(ctx).
		Model(&rewardModel{}).
		Where("reward_id = ?", rewardID).
		Updates(map[string]any{
			"stock":      stock,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return ports.Reward{}, result.Error
	}
	if result.RowsAffected == 0 {
		return ports.Reward{}, domainerrors.ErrRewardNotFound
	}
	return r.GetReward(ctx, rewardID)
}

func (r *Repository) GetUserProjection(ctx context.Context, userID string) (ports.UserProjection, error) {
	var row userModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserProjection{}, domainerrors.ErrUserNotFound
		}
		return ports.UserProjection{}, err
	}

	var badges int64
	if err := r.db.WithContext(ctx).
		Model(&userBadgeModel{}).
		Where("user_id = ?", userID).
		Count(&badges).
		Error; err != nil {
		return ports.UserProjection{}, err
	}

	projection := row.toPort()
	projection.BadgeCount = int(badges)
	return projection, nil
}

func (r *Repository) GetReceiptByRequestID(ctx context.Context, requestID string) (ports.Receipt, bool, error) {
	var row receiptModel
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Receipt{}, false, nil
		}
		return ports.Receipt{}, false, err
	}
	return row.toPort(), true, nil
}

// Redeem runs the whole protocol in one transaction: a conditional
// stock decrement, a conditional balance debit, the receipt insert and
// the outbox rows. Either conditional update affecting zero rows aborts
// the transaction with the matching domain error.
func (r *Repository) Redeem(ctx context.Context, receipt ports.Receipt, records []ports.OutboxRecord) (ports.Receipt, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stockResult := tx.Model(&rewardModel{}).
			Where("reward_id = ? AND stock > 0", receipt.RewardID).
			Updates(map[string]any{
				"stock":      gorm.Expr("stock - 1"),
				"updated_at": receipt.RedeemedAt.UTC(),
			})
		if stockResult.Error != nil {
			return stockResult.Error
		}
		if stockResult.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&rewardModel{}).Where("reward_id = ?", receipt.RewardID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrRewardNotFound
			}
			return domainerrors.ErrOutOfStock
		}

		debitResult := tx.Model(&userModel{}).
			Where("user_id = ? AND points >= ?", receipt.UserID, receipt.CostPoints).
			Updates(map[string]any{
				"points":     gorm.Expr("points - ?", receipt.CostPoints),
				"updated_at": receipt.RedeemedAt.UTC(),
			})
		if debitResult.Error != nil {
			return debitResult.Error
		}
		if debitResult.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&userModel{}).Where("user_id = ?", receipt.UserID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrUserNotFound
			}
			return domainerrors.ErrInsufficientPoints
		}

		var user userModel
		if err := tx.Select("points").Where("user_id = ?", receipt.UserID).First(&user).Error; err != nil {
			return err
		}
		receipt.RemainingPoints = user.Points
		if err := tx.Model(&userModel{}).
			Where("user_id = ?", receipt.UserID).
			Update("level", leveling.LevelFor(user.Points)).
			Error; err != nil {
			return err
		}

		row := receiptModelFromPort(receipt)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return appendOutbox(tx, records)
	})
	if err != nil {
		return ports.Receipt{}, err
	}
	return receipt, nil
}

func (r *Repository) ListReceipts(ctx context.Context, userID string, limit int) ([]ports.Receipt, error) {
	tx := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("redeemed_at DESC, receipt_id DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []receiptModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]ports.Receipt, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND event_type = ?", outboxStatusPending, "engagement.reward_claimed").
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

type rewardModel struct {
	RewardID    string    `gorm:"column:reward_id;primaryKey"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	CostPoints  int       `gorm:"column:cost_points"`
	Stock       int       `gorm:"column:stock"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (rewardModel) TableName() string {
	return "rewards"
}

func rewardModelFromPort(reward ports.Reward) rewardModel {
	return rewardModel{
		RewardID:    reward.RewardID,
		Title:       reward.Title,
		Description: reward.Description,
		CostPoints:  reward.CostPoints,
		Stock:       reward.Stock,
		CreatedAt:   reward.CreatedAt.UTC(),
		UpdatedAt:   reward.UpdatedAt.UTC(),
	}
}

func (m rewardModel) toPort() ports.Reward {
	return ports.Reward{
		RewardID:    m.RewardID,
		Title:       m.Title,
		Description: m.Description,
		CostPoints:  m.CostPoints,
		Stock:       m.Stock,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type receiptModel struct {
	ReceiptID       string    `gorm:"column:receipt_id;primaryKey"`
	RequestID       string    `gorm:"column:request_id;uniqueIndex"`
	RewardID        string    `gorm:"column:reward_id"`
	RewardTitle     string    `gorm:"column:reward_title"`
	UserID          string    `gorm:"column:user_id"`
	CostPoints      int       `gorm:"column:cost_points"`
	RemainingPoints int       `gorm:"column:remaining_points"`
	RedeemedAt      time.Time `gorm:"column:redeemed_at"`
}

func (receiptModel) TableName() string {
	return "reward_receipts"
}

func receiptModelFromPort(receipt ports.Receipt) receiptModel {
	return receiptModel{
		ReceiptID:       receipt.ReceiptID,
		RequestID:       receipt.RequestID,
		RewardID:        receipt.RewardID,
		RewardTitle:     receipt.RewardTitle,
		UserID:          receipt.UserID,
		CostPoints:      receipt.CostPoints,
		RemainingPoints: receipt.RemainingPoints,
		RedeemedAt:      receipt.RedeemedAt.UTC(),
	}
}

func (m receiptModel) toPort() ports.Receipt {
	return ports.Receipt{
		ReceiptID:       m.ReceiptID,
		RequestID:       m.RequestID,
		RewardID:        m.RewardID,
		RewardTitle:     m.RewardTitle,
		UserID:          m.UserID,
		CostPoints:      m.CostPoints,
		RemainingPoints: m.RemainingPoints,
		RedeemedAt:      m.RedeemedAt.UTC(),
	}
}

type userModel struct {
	UserID      string    `gorm:"column:user_id;primaryKey"`
	DisplayName string    `gorm:"column:display_name"`
	Points      int       `gorm:"column:points"`
	Level       int       `gorm:"column:level"`
	CarbonSaved float64   `gorm:"column:carbon_saved"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string {
	return "users"
}

func (m userModel) toPort() ports.UserProjection {
	return ports.UserProjection{
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Points:      m.Points,
		Level:       m.Level,
		CarbonSaved: m.CarbonSaved,
	}
}

type userBadgeModel struct {
	UserID   string `gorm:"column:user_id;primaryKey"`
	BadgeKey string `gorm:"column:badge_key;primaryKey"`
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

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
