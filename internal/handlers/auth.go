package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/anonto42/story-branch/backend/internal/middleware"
	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const refreshTokenCookie = "refreshToken"

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth         *services.AuthService
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookie: secureCookie}
}

// RegisterAuthRoutes registers session routes; requireAuth guards the ones needing a session
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh-token", h.RefreshToken)
	g.POST("/firebase-login", h.FirebaseLogin)
	g.POST("/logout", h.Logout, requireAuth)
	g.POST("/change-password", h.ChangePassword, requireAuth)
}

// Register handles local user registration
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Register(req)
	if err != nil {
		return fail(err)
	}
	h.setSessionCookies(c, session.Tokens)
	return respond(c, http.StatusCreated, session, "User registered successfully")
}

// Login handles username or email plus password authentication
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Login(req)
	if err != nil {
		return fail(err)
	}
	h.setSessionCookies(c, session.Tokens)
	return respond(c, http.StatusOK, session, "User logged in successfully")
}

// RefreshToken rotates the session; the refresh token comes from the cookie or the body
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req models.RefreshTokenRequest
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		req.RefreshToken = cookie.Value
	} else if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request payload")
	}
	session, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		return fail(err)
	}
	h.setSessionCookies(c, session.Tokens)
	return respond(c, http.StatusOK, session.Tokens, "Access token refreshed")
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin exchanges a Firebase ID token for a local session
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	session, err := h.auth.FirebaseLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return fail(err)
	}
	h.setSessionCookies(c, session.Tokens)
	return respond(c, http.StatusOK, session, "User logged in successfully")
}

// Logout revokes the refresh token and clears the session cookies
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, err := uintUserID(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(userID); err != nil {
		return fail(err)
	}
	h.clearSessionCookies(c)
	return respond(c, http.StatusOK, echo.Map{}, "User logged out")
}

// ChangePassword updates the authenticated user's password
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req models.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID, err := uintUserID(c)
	if err != nil {
		return err
	}
	if err := h.auth.ChangePassword(userID, req); err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, echo.Map{}, "Password changed successfully")
}

func (h *AuthHandler) setSessionCookies(c echo.Context, tokens *models.TokenPair) {
	tm := h.auth.Tokens()
	c.SetCookie(h.cookie(middleware.AccessTokenCookie, tokens.AccessToken, tm.AccessTTL()))
	c.SetCookie(h.cookie(refreshTokenCookie, tokens.RefreshToken, tm.RefreshTTL()))
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	c.SetCookie(h.cookie(middleware.AccessTokenCookie, "", -1))
	c.SetCookie(h.cookie(refreshTokenCookie, "", -1))
}

func (h *AuthHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = time.Now().Add(ttl)
	}
	return cookie
}

// uintUserID returns the authenticated user's numeric ID
func uintUserID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(getUserIDFromContext(c), 10, 64)
	if err != nil {
		return 0, fail(&services.Error{Kind: services.KindUnauthorized, Message: "Unauthorized request"})
	}
	return uint(id), nil
}
