package app

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/southsideweekly/south-side-weekly/internal/auth"
	"github.com/southsideweekly/south-side-weekly/internal/authpw"
	"github.com/southsideweekly/south-side-weekly/internal/session"
	"github.com/southsideweekly/south-side-weekly/internal/workflow"
)

// mapError translates service errors into an HTTP status, a stable error code
// and a client-safe message. Workflow errors carry their own status and code;
// everything unrecognized collapses to a 500 without leaking internals.
func mapError(err error) (status int, code, message string, details any) {
	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		return wfErr.Status, wfErr.Code, wfErr.Message, wfErr.Details
	}
	switch {
	case errors.Is(err, workflow.ErrVersionConflict):
		return http.StatusConflict, workflow.CodeConflict, "Concurrent modification, retry the request", nil
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, workflow.CodeNotFound, "Not found", nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken), errors.Is(err, session.ErrNotFound):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil
	case errors.Is(err, authpw.ErrEmailTaken):
		return http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil
	case errors.Is(err, authpw.ErrNotOnboarded):
		return http.StatusForbidden, "NOT_ONBOARDED", "Account pending onboarding review", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
