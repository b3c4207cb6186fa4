package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/internal/notifications"
	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
)

// Repository defines persistence operations for the payments table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	// ConfirmPending flips a pending payment to confirmed. False means the
	// payment was no longer pending.
	ConfirmPending(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ListPending(ctx context.Context, filter PendingFilter) ([]models.Payment, error)
}

type notifier interface {
	Record(ctx context.Context, tx *gorm.DB, action enums.NotificationAction, meta notifications.Metadata) (*models.Notification, error)
	Deliver(ctx context.Context, notification *models.Notification) bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
