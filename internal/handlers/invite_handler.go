package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/wordmate-app/backend/internal/models"
	"github.com/wordmate-app/backend/internal/services"
)

// InviteHandler handles HTTP requests for the invite/game coordinator.
type InviteHandler struct {
	coordinator *services.Coordinator
}

// NewInviteHandler creates a new InviteHandler.
func NewInviteHandler(coordinator *services.Coordinator) *InviteHandler {
	return &InviteHandler{coordinator: coordinator}
}

// RegisterInviteRoutes registers invite and coordinator routes.
func (h *InviteHandler) RegisterInviteRoutes(g *echo.Group) {
	g.POST("/invites", h.SendInvite)
	g.POST("/invites/:id/accept", h.AcceptInvite)
	g.POST("/invites/:id/reject", h.RejectInvite)
	g.POST("/invites/:id/cancel", h.CancelInvite)
	g.GET("/games/current", h.CurrentState)
	g.DELETE("/games/:id/invite", h.CloseGame)
}

// SendInvite creates a pending game invite. Both parties must be online
// and available.
func (h *InviteHandler) SendInvite(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}

	var req models.CreateInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	invite, err := h.coordinator.SendInvite(c.Request().Context(), uid, req.ReceiverID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, invite)
}

// AcceptInvite accepts an invite addressed to the caller and returns it
// with the freshly bound game id. The game document is created lazily by
// the first player to load it, not here.
func (h *InviteHandler) AcceptInvite(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	invite, err := h.coordinator.AcceptInvite(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, invite)
}

// RejectInvite rejects an invite addressed to the caller.
func (h *InviteHandler) RejectInvite(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	if err := h.coordinator.RejectInvite(c.Request().Context(), c.Param("id"), uid); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CancelInvite cancels an invite the caller sent.
func (h *InviteHandler) CancelInvite(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	if err := h.coordinator.CancelInvite(c.Request().Context(), c.Param("id"), uid); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CurrentState is the coordinator tick: the caller's derived view of
// invites and any active game. Clients poll this.
func (h *InviteHandler) CurrentState(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	state, err := h.coordinator.CurrentState(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, state)
}

// CloseGame deletes the invite bound to a finished game, whichever party
// asks first.
func (h *InviteHandler) CloseGame(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	if err := h.coordinator.CloseGame(c.Request().Context(), uid, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
