package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/wordmate-app/backend/internal/models"
	"github.com/wordmate-app/backend/internal/repositories"
)

// AuthHandler creates and returns the profile behind a verified Firebase
// identity. Sign-up/sign-in happen client-side against Firebase; by the
// time a request lands here the middleware has already verified the ID
// token, so registration is just "create my profile document".
type AuthHandler struct {
	userRepository repositories.UserRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userRepo repositories.UserRepository) *AuthHandler {
	return &AuthHandler{userRepository: userRepo}
}

// RegisterAuthRoutes registers auth-related routes.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/auth/register", h.Register)
	g.GET("/auth/me", h.Me)
}

// Register creates the profile document for the authenticated identity.
func (h *AuthHandler) Register(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}

	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := &models.User{
		ID:          uid,
		DisplayName: req.DisplayName,
		Email:       req.Email,
	}
	if err := h.userRepository.Create(c.Request().Context(), user); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := callerUID(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetByID(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}
