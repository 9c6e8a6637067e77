package storage

import (
	"context"

	"gorm.io/gorm"

	"notifyhub/internal/models"
)

// NotificationRepository defines the interface for notification data operations.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	ListForUser(ctx context.Context, recipientUserID uint) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientUserID uint, id string) error
	Delete(ctx context.Context, recipientUserID uint, id string) error
	DeleteMany(ctx context.Context, recipientUserID uint, ids []string) error
}

type gormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) NotificationRepository {
	return &gormNotificationRepository{db: db}
}

func (r *gormNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *gormNotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// ListForUser returns the full current notification set for the user,
// newest first. Read and unread rows are both included; the projection
// into invitations and post activity happens client side.
func (r *gormNotificationRepository) ListForUser(ctx context.Context, recipientUserID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_user_id = ?", recipientUserID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

// MarkRead flips the read flag. Scoped to the recipient so one user
// cannot touch another's rows.
func (r *gormNotificationRepository) MarkRead(ctx context.Context, recipientUserID uint, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_user_id = ?", id, recipientUserID).
		Update("read", true).Error
}

func (r *gormNotificationRepository) Delete(ctx context.Context, recipientUserID uint, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND recipient_user_id = ?", id, recipientUserID).
		Delete(&models.Notification{}).Error
}

// DeleteMany removes a batch of notifications in one statement.
// Deletion is permanent, there is no soft dismiss.
func (r *gormNotificationRepository) DeleteMany(ctx context.Context, recipientUserID uint, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("recipient_user_id = ? AND id IN ?", recipientUserID, ids).
		Delete(&models.Notification{}).Error
}
