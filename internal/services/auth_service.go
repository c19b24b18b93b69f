package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// IDTokenVerifier verifies Firebase ID tokens; *auth.Client satisfies it
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Session is an authenticated user with a freshly issued token pair
type Session struct {
	User   *models.User      `json:"user"`
	Tokens *models.TokenPair `json:"tokens"`
}

// AuthService manages local accounts, sessions and Firebase sign-in
type AuthService struct {
	users    repositories.UserRepository
	tokens   *TokenManager
	firebase IDTokenVerifier
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService. firebase may be nil, which disables Firebase sign-in.
func NewAuthService(users repositories.UserRepository, tokens *TokenManager, firebase IDTokenVerifier, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, firebase: firebase, logger: logger.Named("auth")}
}

// Tokens returns the token manager used for sessions
func (s *AuthService) Tokens() *TokenManager { return s.tokens }

// Register creates a local account and opens a session for it
func (s *AuthService) Register(req models.CreateLocalUserRequest) (*Session, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		return nil, invalidArgument("full name, username, email and password are required")
	}

	if _, err := s.users.GetUserByEmail(email); err == nil {
		return nil, conflict("user with this email already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internal("failed to look up user", err)
	}
	if _, err := s.users.GetUserByUsername(username); err == nil {
		return nil, conflict("user with this username already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internal("failed to look up user", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internal("failed to hash password", err)
	}
	user := &models.User{
		FullName: strings.TrimSpace(req.FullName),
		Username: username,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.users.CreateUser(user); err != nil {
		return nil, internal("failed to create user", err)
	}
	s.logger.Info("user registered", zap.Uint("user_id", user.ID))
	return s.openSession(user)
}

// Login verifies username or email plus password and opens a session
func (s *AuthService) Login(req models.LoginRequest) (*Session, error) {
	if (req.Username == "" && req.Email == "") || req.Password == "" {
		return nil, invalidArgument("username or email and password are required")
	}

	var (
		user *models.User
		err  error
	)
	if req.Email != "" {
		user, err = s.users.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	} else {
		user, err = s.users.GetUserByUsername(strings.ToLower(strings.TrimSpace(req.Username)))
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("user does not exist")
		}
		return nil, internal("failed to look up user", err)
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, unauthorized("invalid user credentials")
	}
	return s.openSession(user)
}

// Refresh rotates the session of the refresh token's owner
func (s *AuthService) Refresh(refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, unauthorized("refresh token is required")
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, unauthorized("invalid refresh token")
		}
		return nil, internal("failed to look up user", err)
	}
	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(hashToken(refreshToken))) != 1 {
		return nil, unauthorized("refresh token is expired or used")
	}
	return s.openSession(user)
}

// Logout revokes the user's refresh token
func (s *AuthService) Logout(userID uint) error {
	if err := s.users.SetRefreshToken(userID, ""); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("user not found")
		}
		return internal("failed to log out", err)
	}
	return nil
}

// ChangePassword replaces the password after checking the old one
func (s *AuthService) ChangePassword(userID uint, req models.ChangePasswordRequest) error {
	if req.OldPassword == "" || req.NewPassword == "" {
		return invalidArgument("old and new password are required")
	}
	user, err := s.CurrentUser(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)) != nil {
		return invalidArgument("invalid old password")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return internal("failed to hash password", err)
	}
	user.Password = string(hashed)
	if err := s.users.UpdateUser(user); err != nil {
		return internal("failed to update password", err)
	}
	return nil
}

// FirebaseLogin exchanges a Firebase ID token for a local session, linking or creating the account
func (s *AuthService) FirebaseLogin(ctx context.Context, idToken string) (*Session, error) {
	token, err := s.verifyFirebase(ctx, idToken)
	if err != nil {
		return nil, err
	}
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	email = strings.ToLower(email)

	user, err := s.users.GetUserByFirebaseUID(token.UID)
	switch {
	case err == nil:
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, internal("failed to look up user", err)
	case email != "":
		user, err = s.users.GetUserByEmail(email)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, internal("failed to look up user", err)
		}
	}

	uid := token.UID
	if user == nil {
		user = &models.User{
			FullName:    name,
			Username:    "fb" + strings.ToLower(uid),
			Email:       email,
			FirebaseUID: &uid,
		}
		if err := s.users.CreateUser(user); err != nil {
			return nil, internal("failed to create user", err)
		}
		s.logger.Info("user created from firebase sign-in", zap.Uint("user_id", user.ID))
	} else if user.FirebaseUID == nil || *user.FirebaseUID != uid {
		user.FirebaseUID = &uid
		if user.FullName == "" {
			user.FullName = name
		}
		if err := s.users.UpdateUser(user); err != nil {
			return nil, internal("failed to link firebase account", err)
		}
	}
	return s.openSession(user)
}

// Authenticate resolves a bearer token to a user: a local access token first, then a Firebase ID token
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, unauthorized("unauthorized request")
	}
	if claims, err := s.tokens.ParseAccess(token); err == nil {
		return s.activeUser(s.users.GetUserByID(claims.UserID))
	}
	if s.firebase == nil {
		return nil, unauthorized("invalid access token")
	}
	fbToken, err := s.verifyFirebase(ctx, token)
	if err != nil {
		return nil, unauthorized("invalid access token")
	}
	return s.activeUser(s.users.GetUserByFirebaseUID(fbToken.UID))
}

// CurrentUser returns the user with userID
func (s *AuthService) CurrentUser(userID uint) (*models.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("user not found")
		}
		return nil, internal("failed to look up user", err)
	}
	return user, nil
}

// UpdateAccount changes the full name and email of the user
func (s *AuthService) UpdateAccount(userID uint, req models.UpdateUserRequest) (*models.User, error) {
	if req.FullName == "" && req.Email == "" {
		return nil, invalidArgument("full name or email is required")
	}
	user, err := s.CurrentUser(userID)
	if err != nil {
		return nil, err
	}
	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if other, err := s.users.GetUserByEmail(email); err == nil && other.ID != user.ID {
			return nil, conflict("user with this email already exists")
		}
		user.Email = email
	}
	if req.FullName != "" {
		user.FullName = strings.TrimSpace(req.FullName)
	}
	if err := s.users.UpdateUser(user); err != nil {
		return nil, internal("failed to update account", err)
	}
	return user, nil
}

// SearchUsers finds users by name, username or email
func (s *AuthService) SearchUsers(query string) ([]models.UserCompact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidArgument("search query is required")
	}
	users, err := s.users.SearchUsers(query)
	if err != nil {
		return nil, internal("failed to search users", err)
	}
	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out, nil
}

func (s *AuthService) verifyFirebase(ctx context.Context, idToken string) (*auth.Token, error) {
	if s.firebase == nil {
		return nil, unauthorized("firebase sign-in is not configured")
	}
	if idToken == "" {
		return nil, invalidArgument("idToken is required")
	}
	token, err := s.firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, unauthorized("invalid firebase ID token")
	}
	return token, nil
}

func (s *AuthService) activeUser(user *models.User, err error) (*models.User, error) {
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, unauthorized("invalid access token")
		}
		return nil, internal("failed to look up user", err)
	}
	return user, nil
}

func (s *AuthService) openSession(user *models.User) (*Session, error) {
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, internal("failed to generate tokens", err)
	}
	if err := s.users.SetRefreshToken(user.ID, hashToken(pair.RefreshToken)); err != nil {
		return nil, internal("failed to store refresh token", err)
	}
	user.RefreshToken = hashToken(pair.RefreshToken)
	return &Session{User: user, Tokens: pair}, nil
}

// hashToken digests a refresh token for storage; tokens exceed bcrypt's input limit
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
