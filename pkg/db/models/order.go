package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/pkg/enums"
)

// Order is a vendor request against a supplier. RemainingAmount only moves
// down, and only through confirmed payments.
type Order struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey"`
	VendorID        uuid.UUID         `gorm:"type:uuid;column:vendor_id;not null"`
	SupplierID      uuid.UUID         `gorm:"type:uuid;column:supplier_id;not null"`
	TotalAmount     decimal.Decimal   `gorm:"type:numeric(12,2);column:total_amount;not null"`
	RemainingAmount decimal.Decimal   `gorm:"type:numeric(12,2);column:remaining_amount;not null"`
	Description     string            `gorm:"column:description;not null;default:''"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
