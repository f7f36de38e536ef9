package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/wordmate-app/backend/internal/models"
	"github.com/wordmate-app/backend/internal/repositories"
	"github.com/wordmate-app/backend/internal/services"
)

// GameHandler handles HTTP requests for wordle games.
type GameHandler struct {
	gameService *services.GameService
	invites     repositories.InviteRepository
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(gameService *services.GameService, invites repositories.InviteRepository) *GameHandler {
	return &GameHandler{gameService: gameService, invites: invites}
}

// RegisterGameRoutes registers game routes.
func (h *GameHandler) RegisterGameRoutes(g *echo.Group) {
	g.POST("/games/:id/load", h.LoadGame)
	g.GET("/games/:id", h.GetGame)
	g.POST("/games/:id/guess", h.Guess)
}

// LoadGame is the lazy-init entry point: it resolves the accepted invite
// behind the game id, creates the game document if this caller is first,
// and returns the caller's view either way.
func (h *GameHandler) LoadGame(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	gameID := c.Param("id")

	invite, err := h.invites.GetByGameID(c.Request().Context(), gameID)
	if err != nil {
		return httpError(err)
	}
	opponent := invite.Opponent(uid)
	if opponent == "" {
		return echo.NewHTTPError(http.StatusForbidden, "not a party to this game")
	}

	view, err := h.gameService.Ensure(c.Request().Context(), gameID, uid, opponent)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// GetGame returns the caller's view of a game.
func (h *GameHandler) GetGame(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	view, err := h.gameService.Get(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// Guess submits a guess for the caller.
func (h *GameHandler) Guess(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}

	var req models.GuessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := h.gameService.Guess(c.Request().Context(), c.Param("id"), uid, req.Word)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}
