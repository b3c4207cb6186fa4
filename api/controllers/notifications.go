package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/paytrack/paytrack-backend/api/responses"
	"github.com/paytrack/paytrack-backend/api/validators"
	"github.com/paytrack/paytrack-backend/internal/notifications"
	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
	"github.com/paytrack/paytrack-backend/pkg/logger"
)

// NotificationsService is the dispatcher surface the HTTP layer uses.
type NotificationsService interface {
	Dispatch(ctx context.Context, action enums.NotificationAction, meta notifications.Metadata) (*models.Notification, error)
	ListFor(ctx context.Context, recipient uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipient, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipient uuid.UUID) (int64, error)
}

type sendNotificationRequest struct {
	Action   string                 `json:"action" validate:"required"`
	Metadata notifications.Metadata `json:"metadata"`
}

// SendNotification dispatches an explicit client action.
func SendNotification(svc NotificationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := actorFromRequest(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sendNotificationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Metadata == nil {
			body.Metadata = notifications.Metadata{}
		}

		notification, err := svc.Dispatch(r.Context(), enums.NotificationAction(body.Action), body.Metadata)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, notification)
	}
}

// ListNotifications returns the caller's notifications, newest first.
func ListNotifications(svc NotificationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListFor(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func MarkNotificationRead(svc NotificationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notificationID, err := validators.ParseUUIDParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), userID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": notificationID, "is_read": true})
	}
}

func MarkAllNotificationsRead(svc NotificationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"updated": updated})
	}
}
