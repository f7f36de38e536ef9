package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/wordmate-app/backend/internal/models"
	"github.com/wordmate-app/backend/internal/services"
)

// FeedHandler handles HTTP requests for the timeline.
type FeedHandler struct {
	timelineService *services.TimelineService
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(timelineService *services.TimelineService) *FeedHandler {
	return &FeedHandler{timelineService: timelineService}
}

// RegisterFeedRoutes registers timeline routes.
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.POST("/tweets", h.CreateTweet)
	g.GET("/tweets/:id", h.GetTweet)
	g.DELETE("/tweets/:id", h.DeleteTweet)
	g.POST("/tweets/:id/like", h.LikeTweet)
	g.DELETE("/tweets/:id/like", h.UnlikeTweet)
	g.GET("/feed", h.GetFeed)
	g.GET("/feed/sync", h.SyncFeed)
}

// CreateTweet posts a new tweet.
func (h *FeedHandler) CreateTweet(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}

	var req models.CreateTweetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tweet, err := h.timelineService.Post(c.Request().Context(), uid, req.Content)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, tweet)
}

// GetTweet retrieves a tweet, subject to the author-or-friend read rule.
func (h *FeedHandler) GetTweet(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	tweet, err := h.timelineService.Get(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tweet)
}

// DeleteTweet removes the caller's own tweet.
func (h *FeedHandler) DeleteTweet(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	if err := h.timelineService.Delete(c.Request().Context(), c.Param("id"), uid); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LikeTweet records a like.
func (h *FeedHandler) LikeTweet(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	if err := h.timelineService.Like(c.Request().Context(), c.Param("id"), uid); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UnlikeTweet removes a like.
func (h *FeedHandler) UnlikeTweet(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	if err := h.timelineService.Unlike(c.Request().Context(), c.Param("id"), uid); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetFeed returns one page of the caller's timeline.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	page := int64(0)
	if raw := c.QueryParam("page"); raw != "" {
		parsed, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid page")
		}
		page = parsed
	}
	tweets, err := h.timelineService.Feed(c.Request().Context(), uid, page)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tweets)
}

// SyncFeed returns activity entries after the given RFC3339 cutoff, the
// cheap path for incremental refresh.
func (h *FeedHandler) SyncFeed(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	raw := c.QueryParam("since")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query parameter 'since' is required")
	}
	since, perr := time.Parse(time.RFC3339, raw)
	if perr != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid 'since' timestamp")
	}
	entries, err := h.timelineService.Sync(c.Request().Context(), uid, since)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entries)
}
