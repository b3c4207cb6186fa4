package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/internal/notifications"
	"github.com/paytrack/paytrack-backend/internal/orders"
	"github.com/paytrack/paytrack-backend/pkg/config"
	"github.com/paytrack/paytrack-backend/pkg/db"
	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
	pkgerrors "github.com/paytrack/paytrack-backend/pkg/errors"
	"github.com/paytrack/paytrack-backend/pkg/logger"
)

// Service is the payment lifecycle: vendor requests and supplier confirmations.
type Service interface {
	RequestPayment(ctx context.Context, input RequestPaymentInput) (*models.Payment, error)
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*ConfirmResult, error)
	ListPending(ctx context.Context, actorID uuid.UUID, role enums.Role) ([]models.Payment, error)
}

// ServiceParams bundles the payment service dependencies.
type ServiceParams struct {
	Repo     Repository
	Orders   orders.Repository
	Tx       txRunner
	Notifier notifier
	Config   config.PaymentsConfig
	Logger   *logger.Logger
	// Now overrides the confirmation clock in tests.
	Now func() time.Time
}

type service struct {
	repo     Repository
	orders   orders.Repository
	tx       txRunner
	notifier notifier
	cfg      config.PaymentsConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		orders:   params.Orders,
		tx:       params.Tx,
		notifier: params.Notifier,
		cfg:      params.Config,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) RequestPayment(ctx context.Context, input RequestPaymentInput) (*models.Payment, error) {
	if input.RequesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	amount := input.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be greater than zero")
	}

	var (
		payment      *models.Payment
		notification *models.Notification
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByID(ctx, input.OrderID)
		if err != nil {
			return orderLookupError(err)
		}
		if order.VendorID != input.RequesterID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
		}
		if s.cfg.EnforceRemainingAmountCap && amount.GreaterThan(order.RemainingAmount) {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment amount exceeds remaining amount").
				WithDetails(map[string]any{"remaining_amount": order.RemainingAmount.String()})
		}

		created, err := s.repo.WithTx(tx).Create(ctx, &models.Payment{
			OrderID: order.ID,
			PaidBy:  input.RequesterID,
			Amount:  amount,
			Status:  enums.PaymentStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create payment")
		}
		payment = created

		notification, err = s.notifier.Record(ctx, tx, enums.ActionPaymentRequest, notifications.Metadata{
			notifications.KeyOrderID:   order.ID.String(),
			notifications.KeyAmount:    amount.String(),
			notifications.KeySenderID:  input.RequesterID.String(),
			notifications.KeyPaymentID: created.ID.String(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Deliver(ctx, notification)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":   payment.OrderID.String(),
		"payment_id": payment.ID.String(),
	}), "payment.requested")
	return payment, nil
}

func (s *service) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*ConfirmResult, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	var (
		result  ConfirmResult
		pending []*models.Notification
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paymentsRepo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		payment, err := paymentsRepo.FindByID(ctx, input.PaymentID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load payment")
		}
		order, err := ordersRepo.FindByID(ctx, payment.OrderID)
		if err != nil {
			return orderLookupError(err)
		}
		if order.SupplierID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to supplier")
		}

		confirmed, err := paymentsRepo.ConfirmPending(ctx, payment.ID, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "confirm payment")
		}
		if !confirmed {
			return pkgerrors.New(pkgerrors.CodeAlreadyConfirmed, "payment already confirmed")
		}

		decremented, err := ordersRepo.DecrementRemaining(ctx, order.ID, payment.Amount, s.cfg.EnforceRemainingAmountCap)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "apply payment to order")
		}
		if !decremented {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment exceeds remaining amount")
		}

		accepted, err := s.notifier.Record(ctx, tx, enums.ActionAcceptPayment, notifications.Metadata{
			notifications.KeyOrderID:   order.ID.String(),
			notifications.KeyAmount:    payment.Amount.String(),
			notifications.KeyPaymentID: payment.ID.String(),
			notifications.KeyUserID:    order.VendorID.String(),
		})
		if err != nil {
			return err
		}
		pending = append(pending, accepted)

		if result.Order, err = ordersRepo.FindByID(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "reload order")
		}
		if result.Payment, err = paymentsRepo.FindByID(ctx, payment.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "reload payment")
		}

		// only the confirmation that settles the balance completes the order
		if order.RemainingAmount.IsPositive() && !result.Order.RemainingAmount.IsPositive() {
			completed, err := s.notifier.Record(ctx, tx, enums.ActionOrderCompleted, notifications.Metadata{
				notifications.KeyOrderID: order.ID.String(),
				notifications.KeyUserID:  order.VendorID.String(),
			})
			if err != nil {
				return err
			}
			pending = append(pending, completed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, notification := range pending {
		s.notifier.Deliver(ctx, notification)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":         result.Order.ID.String(),
		"payment_id":       result.Payment.ID.String(),
		"remaining_amount": result.Order.RemainingAmount.String(),
	}), "payment.confirmed")
	return &result, nil
}

func (s *service) ListPending(ctx context.Context, actorID uuid.UUID, role enums.Role) ([]models.Payment, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var filter PendingFilter
	if s.cfg.ScopePending {
		switch role {
		case enums.RoleSupplier:
			filter.SupplierID = &actorID
		case enums.RoleVendor:
			filter.PaidBy = &actorID
		default:
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
		}
	}

	rows, err := s.repo.ListPending(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list pending payments")
	}
	if rows == nil {
		rows = []models.Payment{}
	}
	return rows, nil
}

func orderLookupError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load order")
}
