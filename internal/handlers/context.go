package handlers

import (
	"github.com/anonto42/story-branch/backend/internal/middleware"
	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the authenticated user's ID, empty on public routes
func getUserIDFromContext(c echo.Context) string {
	id, _ := c.Get(middleware.UserIDKey).(string)
	return id
}

// getUserFromContext returns the authenticated user, nil on public routes
func getUserFromContext(c echo.Context) *models.User {
	user, _ := c.Get(middleware.UserKey).(*models.User)
	return user
}
