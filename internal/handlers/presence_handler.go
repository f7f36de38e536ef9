package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/wordmate-app/backend/internal/models"
	"github.com/wordmate-app/backend/internal/repositories"
)

// PresenceHandler handles HTTP requests for session/presence tracking.
// Attach returns an explicit ClientSession that the client echoes back on
// every heartbeat and detach; nothing presence-related rides on ambient
// state.
type PresenceHandler struct {
	presence repositories.PresenceRepository
}

// NewPresenceHandler creates a new PresenceHandler.
func NewPresenceHandler(presence repositories.PresenceRepository) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// RegisterPresenceRoutes registers presence routes.
func (h *PresenceHandler) RegisterPresenceRoutes(g *echo.Group) {
	g.POST("/presence/attach", h.Attach)
	g.POST("/presence/heartbeat", h.Heartbeat)
	g.POST("/presence/detach", h.Detach)
	g.PUT("/presence/availability", h.SetAvailability)
	g.GET("/presence/:id", h.GetPresence)
	g.GET("/presence/:id/stream", h.StreamPresence)
}

// sessionRequest carries the session token for heartbeat/detach. The
// identity half of the ClientSession comes from the verified token.
type sessionRequest struct {
	SessionToken string `json:"session_token" validate:"required"`
}

// Attach registers a fresh session for the caller and returns it.
func (h *PresenceHandler) Attach(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	session, err := h.presence.Attach(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, session)
}

// Heartbeat refreshes the session's liveness window.
func (h *PresenceHandler) Heartbeat(c echo.Context) error {
	uid, session, err := h.bindSession(c)
	if err != nil {
		return err
	}
	if err := h.presence.Heartbeat(c.Request().Context(), models.ClientSession{IdentityID: uid, SessionToken: session}); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Detach removes exactly the caller's session; other tabs stay online.
func (h *PresenceHandler) Detach(c echo.Context) error {
	uid, session, err := h.bindSession(c)
	if err != nil {
		return err
	}
	if err := h.presence.Detach(c.Request().Context(), models.ClientSession{IdentityID: uid, SessionToken: session}); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetAvailability flips the caller's available-for-games flag.
func (h *PresenceHandler) SetAvailability(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}

	var req models.SetAvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.presence.SetAvailability(c.Request().Context(), uid, *req.Available); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetPresence returns the live presence snapshot for any identity.
func (h *PresenceHandler) GetPresence(c echo.Context) error {
	record, err := h.presence.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// StreamPresence pushes presence updates for one identity as server-sent
// events. The subscription is torn down when the client goes away: the
// request context cancels, the watch channel closes, the loop exits.
func (h *PresenceHandler) StreamPresence(c echo.Context) error {
	ctx := c.Request().Context()
	updates, err := h.presence.Watch(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	for record := range updates {
		payload, err := json.Marshal(record)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(res, "data: %s\n\n", payload); err != nil {
			return nil // client gone
		}
		res.Flush()
	}
	return nil
}

func (h *PresenceHandler) bindSession(c echo.Context) (string, string, error) {
	uid, err := callerUID(c)
	if err != nil {
		return "", "", err
	}
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return uid, req.SessionToken, nil
}
