package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/pkg/db/models"
)

type gormDirectory struct {
	db *gorm.DB
}

// NewDirectory answers template lookups from the orders and users tables.
func NewDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

func (d *gormDirectory) WithTx(tx *gorm.DB) Directory {
	if tx == nil {
		return d
	}
	return &gormDirectory{db: tx}
}

func (d *gormDirectory) OrderSupplier(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error) {
	var order models.Order
	err := d.db.WithContext(ctx).
		Select("id", "supplier_id").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return uuid.Nil, err
	}
	return order.SupplierID, nil
}

func (d *gormDirectory) Username(ctx context.Context, userID uuid.UUID) (string, error) {
	var user models.User
	err := d.db.WithContext(ctx).
		Select("id", "username").
		First(&user, "id = ?", userID).Error
	if err != nil {
		return "", err
	}
	return user.Username, nil
}
