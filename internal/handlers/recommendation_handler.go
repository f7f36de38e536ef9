package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wordmate-app/backend/internal/services"
)

// RecommendationHandler handles HTTP requests for friend recommendations.
type RecommendationHandler struct {
	recommendService *services.RecommendService
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(recommendService *services.RecommendService) *RecommendationHandler {
	return &RecommendationHandler{recommendService: recommendService}
}

// RegisterRecommendationRoutes registers recommendation routes.
func (h *RecommendationHandler) RegisterRecommendationRoutes(g *echo.Group) {
	g.GET("/friends/recommendations", h.GetRecommendations)
	g.DELETE("/friends/recommendations/:id", h.DismissRecommendation)
}

// GetRecommendations returns the ranked friends-of-friends list.
func (h *RecommendationHandler) GetRecommendations(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	recs, err := h.recommendService.ForUser(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, recs)
}

// DismissRecommendation hides a candidate from the caller's cached list.
// Only the cache changes: the candidate stays visible to other users.
func (h *RecommendationHandler) DismissRecommendation(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	if err := h.recommendService.Dismiss(c.Request().Context(), uid, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
