package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from *enums.OrderStatus, to enums.OrderStatus) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id)
	if from != nil {
		query = query.Where("status = ?", *from)
	}
	result := query.Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) DecrementRemaining(ctx context.Context, id uuid.UUID, amount decimal.Decimal, floor bool) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id)
	if floor {
		query = query.Where("remaining_amount >= ?", amount)
	}
	result := query.Update("remaining_amount", gorm.Expr("remaining_amount - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListForUser(ctx context.Context, filter ListFilter) ([]OrderSummary, error) {
	own, other := "o.vendor_id", "o.supplier_id"
	if filter.Role == enums.RoleSupplier {
		own, other = "o.supplier_id", "o.vendor_id"
	}

	query := r.db.WithContext(ctx).
		Table("orders AS o").
		Select(`o.id, o.vendor_id, o.supplier_id, o.total_amount, o.remaining_amount,
			o.description, o.status, o.created_at,
			u.id AS counterparty_id, u.username AS counterparty_name`).
		Joins("JOIN users u ON u.id = "+other).
		Where(own+" = ?", filter.UserID)
	if filter.CounterpartyID != nil {
		query = query.Where(other+" = ?", *filter.CounterpartyID)
	}

	var rows []OrderSummary
	if err := query.Order("o.created_at DESC, o.id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
