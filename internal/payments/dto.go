package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
)

// RequestPaymentInput is a vendor's partial payment against one of their orders.
type RequestPaymentInput struct {
	OrderID     uuid.UUID
	RequesterID uuid.UUID
	Amount      decimal.Decimal
}

// ConfirmPaymentInput is a supplier confirming receipt of a payment.
type ConfirmPaymentInput struct {
	PaymentID uuid.UUID
	ActorID   uuid.UUID
}

// ConfirmResult carries the confirmed payment and its order after the decrement.
type ConfirmResult struct {
	Payment *models.Payment
	Order   *models.Order
}

// PendingFilter narrows a pending listing. A nil pointer leaves that side open.
type PendingFilter struct {
	SupplierID *uuid.UUID
	PaidBy     *uuid.UUID
}

// PaymentDTO is the transport shape of a payment.
type PaymentDTO struct {
	ID          uuid.UUID           `json:"payment_id"`
	OrderID     uuid.UUID           `json:"order_id"`
	PaidBy      uuid.UUID           `json:"paid_by"`
	Amount      decimal.Decimal     `json:"amount"`
	Status      enums.PaymentStatus `json:"status"`
	RequestedAt time.Time           `json:"requested_at"`
	ConfirmedAt *time.Time          `json:"confirmed_at,omitempty"`
}

func FromModel(p *models.Payment) *PaymentDTO {
	if p == nil {
		return nil
	}
	return &PaymentDTO{
		ID:          p.ID,
		OrderID:     p.OrderID,
		PaidBy:      p.PaidBy,
		Amount:      p.Amount,
		Status:      p.Status,
		RequestedAt: p.RequestedAt,
		ConfirmedAt: p.ConfirmedAt,
	}
}

func FromModels(rows []models.Payment) []PaymentDTO {
	out := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
