package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
)

// CreateOrderInput is a vendor's order against a supplier named by username and phone.
type CreateOrderInput struct {
	VendorID      uuid.UUID
	SupplierName  string
	SupplierPhone string
	TotalAmount   decimal.Decimal
	Description   string
}

// UpdateStatusInput is a supplier decision on an order.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Status  enums.OrderStatus
}

// ListFilter scopes an order listing to one side of the order.
type ListFilter struct {
	UserID         uuid.UUID
	Role           enums.Role
	CounterpartyID *uuid.UUID
}

// OrderDTO is the transport shape of a single order.
type OrderDTO struct {
	ID              uuid.UUID         `json:"order_id"`
	VendorID        uuid.UUID         `json:"vendor_id"`
	SupplierID      uuid.UUID         `json:"supplier_id"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	RemainingAmount decimal.Decimal   `json:"remaining_amount"`
	Description     string            `json:"description"`
	Status          enums.OrderStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

// OrderSummary is an order joined with the counterparty's display name.
type OrderSummary struct {
	ID               uuid.UUID         `json:"order_id" gorm:"column:id"`
	VendorID         uuid.UUID         `json:"vendor_id" gorm:"column:vendor_id"`
	SupplierID       uuid.UUID         `json:"supplier_id" gorm:"column:supplier_id"`
	CounterpartyID   uuid.UUID         `json:"counterparty_id" gorm:"column:counterparty_id"`
	CounterpartyName string            `json:"counterparty_name" gorm:"column:counterparty_name"`
	TotalAmount      decimal.Decimal   `json:"total_amount" gorm:"column:total_amount"`
	RemainingAmount  decimal.Decimal   `json:"remaining_amount" gorm:"column:remaining_amount"`
	Description      string            `json:"description" gorm:"column:description"`
	Status           enums.OrderStatus `json:"status" gorm:"column:status"`
	CreatedAt        time.Time         `json:"created_at" gorm:"column:created_at"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		ID:              o.ID,
		VendorID:        o.VendorID,
		SupplierID:      o.SupplierID,
		TotalAmount:     o.TotalAmount,
		RemainingAmount: o.RemainingAmount,
		Description:     o.Description,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
	}
}
