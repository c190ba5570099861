package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainerrors "greenloop/contexts/engagement/notification-service/domain/errors"
	"greenloop/contexts/engagement/notification-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
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

func (r *Repository) Append(ctx context.Context, notification ports.Notification) (bool, error) {
	row := notificationModelFromPort(notification)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]ports.Notification, error) {
	tx := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, notification_id DESC")
	if unreadOnly {
		tx = tx.Where("read = ?", false)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []notificationModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]ports.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkRead(ctx context.Context, userID string, notificationID string) (ports.Notification, error) {
	result := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ? AND notification_id = ?", userID, notificationID).
		Update("read", true)
	if result.Error != nil {
		return ports.Notification{}, result.Error
	}
	if result.RowsAffected == 0 {
		return ports.Notification{}, domainerrors.ErrNotificationNotFound
	}

	var row notificationModel
	if err := r.db.WithContext(ctx).
		Where("notification_id = ?", notificationID).
		First(&row).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Notification{}, domainerrors.ErrNotificationNotFound
		}
		return ports.Notification{}, err
	}
	return row.toPort(), nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

type notificationModel struct {
	NotificationID string    `gorm:"column:notification_id;primaryKey"`
	UserID         string    `gorm:"column:user_id"`
	Title          string    `gorm:"column:title"`
	Message        string    `gorm:"column:message"`
	Kind           string    `gorm:"column:kind"`
	Read           bool      `gorm:"column:read"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (notificationModel) TableName() string {
	return "notifications"
}

func notificationModelFromPort(notification ports.Notification) notificationModel {
	return notificationModel{
		NotificationID: notification.NotificationID,
		UserID:         notification.UserID,
		Title:          notification.Title,
		Message:        notification.Message,
		Kind:           notification.Kind,
		Read:           notification.Read,
		CreatedAt:      notification.CreatedAt.UTC(),
	}
}

func (m notificationModel) toPort() ports.Notification {
	return ports.Notification{
		NotificationID: m.NotificationID,
		UserID:         m.UserID,
		Title:          m.Title,
		Message:        m.Message,
		Kind:           m.Kind,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
