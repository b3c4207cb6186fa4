package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ConfirmPending(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":       enums.PaymentStatusConfirmed,
			"confirmed_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListPending(ctx context.Context, filter PendingFilter) ([]models.Payment, error) {
	query := r.db.WithContext(ctx).
		Table("payments AS p").
		Select("p.*").
		Where("p.status = ?", enums.PaymentStatusPending)
	if filter.SupplierID != nil {
		query = query.Joins("JOIN orders o ON o.id = p.order_id").Where("o.supplier_id = ?", *filter.SupplierID)
	}
	if filter.PaidBy != nil {
		query = query.Where("p.paid_by = ?", *filter.PaidBy)
	}

	var rows []models.Payment
	if err := query.Order("p.requested_at DESC, p.id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
