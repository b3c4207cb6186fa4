package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/paytrack/paytrack-backend/api/responses"
	"github.com/paytrack/paytrack-backend/internal/users"
	"github.com/paytrack/paytrack-backend/pkg/db"
	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
	pkgerrors "github.com/paytrack/paytrack-backend/pkg/errors"
	"github.com/paytrack/paytrack-backend/pkg/logger"
)

type profileReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type counterpartyLister interface {
	ListCounterparties(ctx context.Context, userID uuid.UUID, role enums.Role) ([]users.CounterpartyDTO, error)
}

// Profile returns the caller's account.
func Profile(repo profileReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := repo.FindByID(r.Context(), userID)
		if err != nil {
			if db.IsNotFound(err) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load profile"))
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// Counterparties lists the distinct users on the other side of the caller's orders.
func Counterparties(repo counterpartyLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !role.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "unknown role"))
			return
		}

		rows, err := repo.ListCounterparties(r.Context(), userID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list counterparties"))
			return
		}
		if len(rows) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNoMatch, "no "+pluralRole(role.Counterparty())+" found"))
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func pluralRole(role enums.Role) string {
	switch role {
	case enums.RoleSupplier:
		return "suppliers"
	case enums.RoleVendor:
		return "vendors"
	}
	return "counterparties"
}
