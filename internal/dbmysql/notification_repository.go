package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"humancanvas/internal/common"
)

// ErrNotFound is returned when a lookup or targeted mutation matches no
// row.
var ErrNotFound = errors.New("notification not found")

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) common.NotificationStore {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *common.Notification) error {
	row := fromCommon(n)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.CreatedAt = row.CreatedAt
	n.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *notificationRepository) ByID(ctx context.Context, id string) (*common.Notification, error) {
	var row Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	n := row.toCommon()
	return &n, nil
}

func (r *notificationRepository) ByUserID(
	ctx context.Context,
	userID string,
	limit int,
) ([]common.Notification, error) {
	var rows []*Notification

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}

	result := make([]common.Notification, len(rows))
	for i, row := range rows {
		result[i] = row.toCommon()
	}
	return result, nil
}

// BulkMarkRead flips is_read on the given rows. Already-read rows are
// untouched; an empty or fully-read id set is a successful no-op.
func (r *notificationRepository) BulkMarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id IN ? AND is_read = ?", ids, false).
		Updates(map[string]interface{}{
			"is_read":    true,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// BulkMarkClicked flips is_clicked on the given rows; is_read is never
// touched here.
func (r *notificationRepository) BulkMarkClicked(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id IN ? AND is_clicked = ?", ids, false).
		Updates(map[string]interface{}{
			"is_clicked": true,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications clicked: %w", err)
	}
	return nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&Notification{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
