package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
	pkgerrors "github.com/paytrack/paytrack-backend/pkg/errors"
	"github.com/paytrack/paytrack-backend/pkg/logger"
	"github.com/paytrack/paytrack-backend/pkg/metrics"
)

// Pusher delivers a payload to a user's live channel, reporting whether it arrived.
type Pusher interface {
	Send(ctx context.Context, userID uuid.UUID, payload any) bool
}

// Payload is the frame pushed over a live channel.
type Payload struct {
	Category enums.NotificationCategory `json:"category"`
	Message  string                     `json:"message"`
	Metadata json.RawMessage            `json:"metadata"`
}

// DispatcherParams bundles the dispatcher dependencies.
type DispatcherParams struct {
	Resolver *Resolver
	Repo     Repository
	Pusher   Pusher
	Metrics  *metrics.DispatchMetrics
	Logger   *logger.Logger
}

// Dispatcher resolves, stores and pushes notifications. Storage is the success
// criterion; a failed push leaves the notification for pull-based reads.
type Dispatcher struct {
	resolver *Resolver
	repo     Repository
	pusher   Pusher
	metrics  *metrics.DispatchMetrics
	logg     *logger.Logger
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Resolver == nil {
		return nil, fmt.Errorf("template resolver required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Pusher == nil {
		return nil, fmt.Errorf("live pusher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{
		resolver: params.Resolver,
		repo:     params.Repo,
		pusher:   params.Pusher,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Dispatch resolves and stores the notification, then attempts a live push.
func (d *Dispatcher) Dispatch(ctx context.Context, action enums.NotificationAction, meta Metadata) (*models.Notification, error) {
	notification, err := d.Record(ctx, nil, action, meta)
	if err != nil {
		return nil, err
	}
	d.Deliver(ctx, notification)
	return notification, nil
}

// Record resolves and stores a notification on tx, or on the base connection
// when tx is nil. Callers push it with Deliver once tx commits.
func (d *Dispatcher) Record(ctx context.Context, tx *gorm.DB, action enums.NotificationAction, meta Metadata) (*models.Notification, error) {
	resolved, err := d.resolver.WithTx(tx).Resolve(ctx, action, meta)
	if err != nil {
		return nil, err
	}
	return d.repo.WithTx(tx).Persist(ctx, resolved.RecipientID, resolved.Category, resolved.Message, meta)
}

// Deliver pushes a stored notification. Failure is never an error.
func (d *Dispatcher) Deliver(ctx context.Context, notification *models.Notification) bool {
	if notification == nil {
		return false
	}
	payload := Payload{
		Category: notification.Category,
		Message:  notification.Message,
		Metadata: json.RawMessage(notification.Metadata),
	}
	if len(payload.Metadata) == 0 {
		payload.Metadata = json.RawMessage("{}")
	}

	delivered := d.pusher.Send(ctx, notification.UserID, payload)
	outcome := metrics.OutcomeStoredOnly
	if delivered {
		outcome = metrics.OutcomeLive
	}
	d.metrics.IncDispatched(string(notification.Category), outcome)

	logCtx := d.logg.WithFields(ctx, map[string]any{
		"notification_id": notification.ID.String(),
		"recipient_id":    notification.UserID.String(),
		"category":        string(notification.Category),
		"outcome":         outcome,
	})
	d.logg.Info(logCtx, "notification.dispatched")
	return delivered
}

// ListFor returns the recipient's notifications, newest first.
func (d *Dispatcher) ListFor(ctx context.Context, recipient uuid.UUID) ([]models.Notification, error) {
	if recipient == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := d.repo.ListFor(ctx, recipient)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list notifications")
	}
	if rows == nil {
		rows = []models.Notification{}
	}
	return rows, nil
}

func (d *Dispatcher) MarkRead(ctx context.Context, recipient, notificationID uuid.UUID) error {
	if recipient == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := d.repo.MarkRead(ctx, recipient, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (d *Dispatcher) MarkAllRead(ctx context.Context, recipient uuid.UUID) (int64, error) {
	if recipient == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := d.repo.MarkAllRead(ctx, recipient)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "mark notifications read")
	}
	return count, nil
}
