package repository

import (
	"context"

	"codefolio/internal/cache"
	"codefolio/internal/models"
	"codefolio/internal/observability"

	"gorm.io/gorm"
)

const notificationBatchSize = 500

// NotificationRepository stores and queries per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, id, recipientID uint) error
	MarkAllRead(ctx context.Context, recipientID uint) error
	Delete(ctx context.Context, id, recipientID uint) error
	DeleteAll(ctx context.Context, recipientID uint) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return models.NewInternalError("Failed to create notification", err)
	}
	observability.NotificationsCreated.WithLabelValues(string(notification.Type)).Inc()
	cache.InvalidateUnreadCount(ctx, notification.RecipientID)
	return nil
}

// CreateBatch inserts fan-out notifications in chunks so a popular author
// does not produce one giant statement.
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(notifications, notificationBatchSize).Error; err != nil {
		return models.NewInternalError("Failed to create notifications", err)
	}
	for i := range notifications {
		observability.NotificationsCreated.WithLabelValues(string(notifications[i].Type)).Inc()
		cache.InvalidateUnreadCount(ctx, notifications[i].RecipientID)
	}
	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error) {
	done := observability.TrackQuery("select", "notifications")
	defer done()

	var notifications []*models.Notification
	err := readDB(r.db).WithContext(ctx).
		Preload("Sender").
		Preload("Post").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, models.NewInternalError("Failed to list notifications", err)
	}
	return notifications, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := cache.Aside(ctx, cache.UnreadCountKey(recipientID), &count, cache.UnreadTTL, func() error {
		return readDB(r.db).WithContext(ctx).
			Model(&models.Notification{}).
			Where("recipient_id = ? AND read = ?", recipientID, false).
			Count(&count).Error
	})
	if err != nil {
		return 0, models.NewInternalError("Failed to count notifications", err)
	}
	return count, nil
}

// MarkRead only touches rows owned by recipientID, so a user cannot mark
// someone else's notification.
func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true)
	if result.Error != nil {
		return models.NewInternalError("Failed to mark notification read", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Notification not found", gorm.ErrRecordNotFound)
	}
	cache.InvalidateUnreadCount(ctx, recipientID)
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true).Error
	if err != nil {
		return models.NewInternalError("Failed to mark notifications read", err)
	}
	cache.InvalidateUnreadCount(ctx, recipientID)
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id, recipientID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return models.NewInternalError("Failed to delete notification", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Notification not found", gorm.ErrRecordNotFound)
	}
	cache.InvalidateUnreadCount(ctx, recipientID)
	return nil
}

func (r *notificationRepository) DeleteAll(ctx context.Context, recipientID uint) error {
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Delete(&models.Notification{}).Error
	if err != nil {
		return models.NewInternalError("Failed to delete notifications", err)
	}
	cache.InvalidateUnreadCount(ctx, recipientID)
	return nil
}
