package services

import (
	"errors"
	"time"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

// TokenManager issues and verifies HS256 access and refresh tokens
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager creates a TokenManager; access and refresh tokens use separate secrets
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// AccessTTL is the lifetime of issued access tokens
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL is the lifetime of issued refresh tokens
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssuePair signs a fresh access and refresh token for user
func (m *TokenManager) IssuePair(user *models.User) (*models.TokenPair, error) {
	access, err := m.sign(user, m.accessSecret, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(user, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccess verifies an access token and returns its claims
func (m *TokenManager) ParseAccess(token string) (*models.JwtCustomClaims, error) {
	return m.parse(token, m.accessSecret)
}

// ParseRefresh verifies a refresh token and returns its claims
func (m *TokenManager) ParseRefresh(token string) (*models.JwtCustomClaims, error) {
	return m.parse(token, m.refreshSecret)
}

func (m *TokenManager) sign(user *models.User, secret []byte, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.IDString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *TokenManager) parse(tokenString string, secret []byte) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, unauthorized("invalid or expired token")
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, unauthorized("invalid or expired token")
	}
	return claims, nil
}
