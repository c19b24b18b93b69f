package handlers

import (
	"net/http"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to user accounts
type UserHandler struct {
	auth *services.AuthService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(auth *services.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

// RegisterUserRoutes registers account routes; all of them need a session
func (h *UserHandler) RegisterUserRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/current-user", h.GetCurrentUser, requireAuth)
	g.PATCH("/update-account", h.UpdateAccount, requireAuth)
	g.GET("/search", h.SearchUsers, requireAuth)
}

// GetCurrentUser returns the authenticated user
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	if user := getUserFromContext(c); user != nil {
		return respond(c, http.StatusOK, user, "Current user fetched successfully")
	}
	userID, err := uintUserID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.CurrentUser(userID)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccount updates the authenticated user's name and email
func (h *UserHandler) UpdateAccount(c echo.Context) error {
	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID, err := uintUserID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.UpdateAccount(userID, req)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, user, "Account details updated successfully")
}

// SearchUsers searches for users by name, username or email
func (h *UserHandler) SearchUsers(c echo.Context) error {
	users, err := h.auth.SearchUsers(c.QueryParam("q"))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, users, "Users fetched successfully")
}
