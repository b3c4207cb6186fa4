package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/pkg/enums"
)

// Payment is a partial settlement requested by the vendor and confirmed by the supplier.
type Payment struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID           `gorm:"type:uuid;column:order_id;not null"`
	PaidBy      uuid.UUID           `gorm:"type:uuid;column:paid_by;not null"`
	Amount      decimal.Decimal     `gorm:"type:numeric(12,2);column:amount;not null"`
	Status      enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	RequestedAt time.Time           `gorm:"column:requested_at;autoCreateTime"`
	ConfirmedAt *time.Time          `gorm:"column:confirmed_at"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
