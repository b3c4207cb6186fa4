package notifications

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
	pkgerrors "github.com/paytrack/paytrack-backend/pkg/errors"
)

// Repository is the durable notification log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Persist(ctx context.Context, recipient uuid.UUID, category enums.NotificationCategory, message string, meta Metadata) (*models.Notification, error)
	ListFor(ctx context.Context, recipient uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipient, notificationID uuid.UUID) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, recipient uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type notificationMarkResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Persist appends a notification. Any failure surfaces as a storage error.
func (r *repositoryImpl) Persist(ctx context.Context, recipient uuid.UUID, category enums.NotificationCategory, message string, meta Metadata) (*models.Notification, error) {
	if meta == nil {
		meta = Metadata{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "encode notification metadata")
	}

	notification := &models.Notification{
		UserID:   recipient,
		Category: category,
		Message:  message,
		Metadata: datatypes.JSON(raw),
	}
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist notification")
	}
	return notification, nil
}

func (r *repositoryImpl) ListFor(ctx context.Context, recipient uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", recipient).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, recipient, notificationID uuid.UUID) (notificationMarkResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, recipient, false).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if mark.Updated {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, recipient).
		Count(&count).Error; err != nil {
		return notificationMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, recipient uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", recipient, false).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
