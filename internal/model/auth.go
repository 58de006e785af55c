package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is a registered account stored in the users collection.
type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	DisplayName  string    `json:"displayName,omitempty" bson:"displayName,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// UserClaims is the JWT payload for both registered users and guests.
// Guest tokens carry a generated ID and Guest=true; guest evaluations are
// scored but never persisted.
type UserClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Guest  bool   `json:"guest"`
	jwt.RegisteredClaims
}

// RegisterRequest is the body for POST /v1/auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register, login, and guest endpoints.
type AuthResponse struct {
	Token       string `json:"token"`
	UserID      string `json:"userId"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Guest       bool   `json:"guest"`
}
