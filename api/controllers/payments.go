package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paytrack/paytrack-backend/api/responses"
	"github.com/paytrack/paytrack-backend/api/validators"
	"github.com/paytrack/paytrack-backend/internal/orders"
	"github.com/paytrack/paytrack-backend/internal/payments"
	"github.com/paytrack/paytrack-backend/pkg/logger"
)

type requestPaymentRequest struct {
	OrderID uuid.UUID       `json:"order_id" validate:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

type confirmPaymentResponse struct {
	Payment *payments.PaymentDTO `json:"payment"`
	Order   *orders.OrderDTO     `json:"order"`
}

// RequestPayment lets a vendor record a partial payment against their order.
func RequestPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body requestPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.RequestPayment(r.Context(), payments.RequestPaymentInput{
			OrderID:     body.OrderID,
			RequesterID: vendorID,
			Amount:      body.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payments.FromModel(payment))
	}
}

// ConfirmPayment lets the order's supplier confirm a pending payment.
func ConfirmPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentID, err := validators.ParseUUIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ConfirmPayment(r.Context(), payments.ConfirmPaymentInput{
			PaymentID: paymentID,
			ActorID:   supplierID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmPaymentResponse{
			Payment: payments.FromModel(result.Payment),
			Order:   orders.FromModel(result.Order),
		})
	}
}

// ListPendingPayments returns pending payments visible to the caller.
func ListPendingPayments(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListPending(r.Context(), userID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments.FromModels(rows))
	}
}
