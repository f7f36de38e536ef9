package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wordmate-app/backend/internal/apperrors"
)

// httpError maps the shared error taxonomy onto HTTP statuses. Handlers
// funnel every service/repository error through here so the mapping lives
// in one place.
func httpError(err error) error {
	var pe *apperrors.PartialError
	if errors.As(err, &pe) {
		// Partial dual-writes are not plain failures; the handler that
		// produced one returns the result body itself. Reaching here means
		// no body was available, so surface it with the degraded marker.
		return echo.NewHTTPError(http.StatusOK, map[string]interface{}{
			"partial":  true,
			"repaired": pe.Repaired,
			"detail":   pe.Error(),
		})
	}
	switch {
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrAlreadyExists),
		errors.Is(err, apperrors.ErrDuplicateRequest),
		errors.Is(err, apperrors.ErrAlreadyFriends),
		errors.Is(err, apperrors.ErrNotYourTurn):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrStale):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// callerUID pulls the verified Firebase UID set by the auth middleware.
func callerUID(c echo.Context) (string, error) {
	uid, ok := c.Get("firebaseUID").(string)
	if !ok || uid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authenticated user")
	}
	return uid, nil
}
