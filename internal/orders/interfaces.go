package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/internal/notifications"
	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// TransitionStatus sets status to `to`. When from is non-nil the row must
	// currently hold that status; the bool reports whether a row changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, from *enums.OrderStatus, to enums.OrderStatus) (bool, error)
	ListForUser(ctx context.Context, filter ListFilter) ([]OrderSummary, error)
	// DecrementRemaining subtracts amount from remaining_amount in SQL. With
	// floor set the row must still cover amount; the bool reports whether it changed.
	DecrementRemaining(ctx context.Context, id uuid.UUID, amount decimal.Decimal, floor bool) (bool, error)
}

type supplierDirectory interface {
	FindSupplierByNameAndPhone(ctx context.Context, username, phone string) (*models.User, error)
}

type notifier interface {
	Record(ctx context.Context, tx *gorm.DB, action enums.NotificationAction, meta notifications.Metadata) (*models.Notification, error)
	Deliver(ctx context.Context, notification *models.Notification) bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
