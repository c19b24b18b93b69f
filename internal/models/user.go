package models

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	FullName     string         `json:"full_name"`
	Username     string         `json:"username" gorm:"uniqueIndex"`
	Email        string         `json:"email" gorm:"uniqueIndex"`
	Avatar       string         `json:"avatar,omitempty"`
	CoverImage   string         `json:"cover_image,omitempty"`
	Password     string         `json:"-"`                                         // Store hashed password, ignore for JSON serialization
	FirebaseUID  *string        `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID, NULL for local accounts
	RefreshToken string         `json:"-"`                                         // SHA-256 digest of the current refresh token
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// IDString returns the user ID in the form stored on videos, stories and orders
func (u *User) IDString() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

// UserCompact is the public author projection embedded in responses
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Avatar   string `json:"avatar,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username, FullName: u.FullName, Avatar: u.Avatar}
}

type CreateLocalUserRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest accepts either a username or an email
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
}

type UpdateUserRequest struct {
	FullName string `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenPair is returned on login, signup and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
