package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/models"
	"github.com/wordmate-app/backend/internal/repositories"
	"github.com/wordmate-app/backend/internal/services"
)

// FriendshipHandler handles HTTP requests related to the friend graph.
type FriendshipHandler struct {
	friendService  *services.FriendService
	userRepository repositories.UserRepository
	presence       repositories.PresenceRepository
}

// NewFriendshipHandler creates a new FriendshipHandler.
func NewFriendshipHandler(friendService *services.FriendService, userRepo repositories.UserRepository, presence repositories.PresenceRepository) *FriendshipHandler {
	return &FriendshipHandler{
		friendService:  friendService,
		userRepository: userRepo,
		presence:       presence,
	}
}

// RegisterFriendshipRoutes registers friendship-related routes.
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/friends/request", h.SendFriendRequest)
	g.GET("/friends/requests/pending", h.GetPendingFriendRequests)
	g.POST("/friends/request/:id/accept", h.AcceptFriendRequest)
	g.POST("/friends/request/:id/reject", h.RejectFriendRequest)
	g.POST("/friends/request/:id/cancel", h.CancelFriendRequest)
	g.GET("/friends", h.GetFriends)
	g.DELETE("/friends/:id", h.DeleteFriend)
	g.POST("/friends/:id/repair", h.RepairFriendship)
}

// FriendView is a friend profile annotated with live presence, so the
// client can render online/offline and available-for-a-game in one list.
type FriendView struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsOnline    bool   `json:"is_online"`
	IsAvailable bool   `json:"is_available"`
}

// SendFriendRequest handles sending a friend request.
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}

	var req models.CreateFriendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.friendService.SendRequest(c.Request().Context(), uid, req.ReceiverID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetPendingFriendRequests retrieves pending requests for the caller.
func (h *FriendshipHandler) GetPendingFriendRequests(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	requests, err := h.friendService.PendingFor(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, requests)
}

// AcceptFriendRequest accepts a request addressed to the caller. A partial
// dual-write is reported in the body, never as plain success.
func (h *FriendshipHandler) AcceptFriendRequest(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	request, result, err := h.friendService.Accept(c.Request().Context(), c.Param("id"), uid)
	if err != nil && !apperrors.IsPartial(err) {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"request": request,
		"result":  result,
	})
}

// RejectFriendRequest rejects a request addressed to the caller.
func (h *FriendshipHandler) RejectFriendRequest(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	if err := h.friendService.Reject(c.Request().Context(), c.Param("id"), uid); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CancelFriendRequest cancels a request the caller sent.
func (h *FriendshipHandler) CancelFriendRequest(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	if err := h.friendService.Cancel(c.Request().Context(), c.Param("id"), uid); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetFriends returns the caller's friends annotated with presence.
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.userRepository.GetByID(ctx, uid)
	if err != nil {
		return httpError(err)
	}
	profiles, err := h.userRepository.GetByIDs(ctx, user.Friends)
	if err != nil {
		return httpError(err)
	}

	views := make([]FriendView, 0, len(profiles))
	for _, p := range profiles {
		view := FriendView{ID: p.ID, DisplayName: p.DisplayName}
		// Presence is best-effort decoration; a read failure leaves the
		// friend rendered offline rather than failing the list.
		if record, perr := h.presence.Get(ctx, p.ID); perr == nil {
			view.IsOnline = record.IsOnline
			view.IsAvailable = record.IsAvailable
		}
		views = append(views, view)
	}
	return c.JSON(http.StatusOK, views)
}

// DeleteFriend removes the friendship with the user in the path. Degraded
// (one-sided) outcomes surface in the body with partial=true.
func (h *FriendshipHandler) DeleteFriend(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	result, err := h.friendService.Remove(c.Request().Context(), uid, c.Param("id"))
	if err != nil && !apperrors.IsPartial(err) {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// RepairFriendship runs the idempotent make-both-sides-agree pass between
// the caller and the user in the path.
func (h *FriendshipHandler) RepairFriendship(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	result, err := h.friendService.Repair(c.Request().Context(), uid, c.Param("id"))
	if err != nil && !apperrors.IsPartial(err) {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}
