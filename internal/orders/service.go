package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/internal/notifications"
	"github.com/paytrack/paytrack-backend/pkg/config"
	"github.com/paytrack/paytrack-backend/pkg/db"
	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
	pkgerrors "github.com/paytrack/paytrack-backend/pkg/errors"
	"github.com/paytrack/paytrack-backend/pkg/logger"
)

// Service is the order lifecycle: creation, supplier decision and listings.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, role enums.Role) ([]OrderSummary, error)
	FilterOrders(ctx context.Context, userID uuid.UUID, role enums.Role, counterpartyID uuid.UUID) ([]OrderSummary, error)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo      Repository
	Suppliers supplierDirectory
	Tx        txRunner
	Notifier  notifier
	Config    config.OrdersConfig
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	suppliers supplierDirectory
	tx        txRunner
	notifier  notifier
	cfg       config.OrdersConfig
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Suppliers == nil {
		return nil, fmt.Errorf("supplier directory required")
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
	return &service{
		repo:      params.Repo,
		suppliers: params.Suppliers,
		tx:        params.Tx,
		notifier:  params.Notifier,
		cfg:       params.Config,
		logg:      params.Logger,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	name := strings.TrimSpace(input.SupplierName)
	phone := strings.TrimSpace(input.SupplierPhone)
	if name == "" || phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name and phone are required")
	}
	total := input.TotalAmount.Round(2)
	if !total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must be greater than zero")
	}

	supplier, err := s.suppliers.FindSupplierByNameAndPhone(ctx, name, phone)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "lookup supplier")
	}

	var (
		order        *models.Order
		notification *models.Notification
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, &models.Order{
			VendorID:        input.VendorID,
			SupplierID:      supplier.ID,
			TotalAmount:     total,
			RemainingAmount: total,
			Description:     strings.TrimSpace(input.Description),
			Status:          enums.OrderStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create order")
		}
		order = created

		notification, err = s.notifier.Record(ctx, tx, enums.ActionOrderCreated, notifications.Metadata{
			notifications.KeyOrderID: created.ID.String(),
			notifications.KeyUserID:  supplier.ID.String(),
			notifications.KeyAmount:  total.String(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Deliver(ctx, notification)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":    order.ID.String(),
		"supplier_id": supplier.ID.String(),
	}), "order.created")
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if !input.Status.IsDecision() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidStatus, fmt.Sprintf("status must be accepted or rejected, got %q", input.Status))
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	action := enums.ActionOrderAccepted
	if input.Status == enums.OrderStatusRejected {
		action = enums.ActionOrderRejected
	}

	var (
		order        *models.Order
		notification *models.Notification
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load order")
		}
		if current.SupplierID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to supplier")
		}

		var from *enums.OrderStatus
		if !s.cfg.AllowStatusRetransition {
			if current.Status != enums.OrderStatusPending {
				return stateConflict(current.Status)
			}
			pending := enums.OrderStatusPending
			from = &pending
		}
		changed, err := repo.TransitionStatus(ctx, current.ID, from, input.Status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "update order status")
		}
		if !changed {
			// a concurrent decision landed between the read and the update
			return stateConflict(current.Status)
		}
		current.Status = input.Status
		order = current

		notification, err = s.notifier.Record(ctx, tx, action, notifications.Metadata{
			notifications.KeyOrderID: current.ID.String(),
			notifications.KeyAmount:  current.TotalAmount.String(),
			notifications.KeyUserID:  current.VendorID.String(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Deliver(ctx, notification)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"status":   string(order.Status),
	}), "order.status_updated")
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, role enums.Role) ([]OrderSummary, error) {
	return s.list(ctx, ListFilter{UserID: userID, Role: role})
}

func (s *service) FilterOrders(ctx context.Context, userID uuid.UUID, role enums.Role, counterpartyID uuid.UUID) ([]OrderSummary, error) {
	if counterpartyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counterparty id required")
	}
	rows, err := s.list(ctx, ListFilter{UserID: userID, Role: role, CounterpartyID: &counterpartyID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoMatch, "no orders found")
	}
	return rows, nil
}

func (s *service) list(ctx context.Context, filter ListFilter) ([]OrderSummary, error) {
	if filter.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !filter.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
	rows, err := s.repo.ListForUser(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list orders")
	}
	if rows == nil {
		rows = []OrderSummary{}
	}
	return rows, nil
}

func stateConflict(current enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order already decided").
		WithDetails(map[string]any{"current_status": current})
}
