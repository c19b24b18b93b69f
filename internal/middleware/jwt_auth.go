package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// Context keys set by AuthMiddleware
const (
	UserKey   = "user"
	UserIDKey = "userID"
)

// AccessTokenCookie is the cookie carrying the access token for browser clients
const AccessTokenCookie = "accessToken"

// Authenticator resolves a bearer token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware requires a valid access token in the Authorization header or the
// accessToken cookie and stores the resolved user in the context.
func AuthMiddleware(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := extractToken(c)
			if err != nil {
				return err
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return unauthorized("Invalid access token")
			}

			c.Set(UserKey, user)
			c.Set(UserIDKey, user.IDString())
			return next(c)
		}
	}
}

func extractToken(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		// Expecting "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", unauthorized("Invalid Authorization header format")
		}
		return parts[1], nil
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", unauthorized("Unauthorized request")
}

func unauthorized(message string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
		"success": false,
		"error":   "unauthorized",
		"message": message,
	})
}
