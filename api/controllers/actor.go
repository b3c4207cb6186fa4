package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/paytrack/paytrack-backend/api/middleware"
	"github.com/paytrack/paytrack-backend/pkg/enums"
	pkgerrors "github.com/paytrack/paytrack-backend/pkg/errors"
)

// actorFromRequest reads the authenticated caller seeded by middleware.Auth.
func actorFromRequest(r *http.Request) (uuid.UUID, enums.Role, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, enums.Role(middleware.RoleFromContext(r.Context())), nil
}
