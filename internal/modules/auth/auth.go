// Package auth issues admin tokens and guards admin-only routes.
package auth

import (
	"context"
	"time"
)

// RoleAdmin is the only role this service issues.
const RoleAdmin = "admin"

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	// ParseToken verifies a bearer token and returns its claims.
	ParseToken(token string) (*Claims, error)
}

// Config is the single admin credential and the token settings.
type Config struct {
	Username     string
	PasswordHash string // bcrypt
	JWTSecret    string
	TokenTTL     time.Duration
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
