package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
)

// Claims is the JWT payload.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

type service struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new auth service.
func NewService(cfg Config, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &service{cfg: cfg, logger: logger, now: time.Now}
}

func (s *service) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	if s.cfg.PasswordHash == "" {
		return nil, apperr.UnauthorizedErr("admin login is disabled")
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	// always run bcrypt so an unknown username costs the same
	passErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		s.logger.WarnContext(ctx, "admin login failed", "username", username)
		return nil, apperr.UnauthorizedErr("invalid credentials")
	}

	expirationTime := s.now().Add(s.cfg.TokenTTL)
	claims := &Claims{
		Role: RoleAdmin,
		StandardClaims: jwt.StandardClaims{
			Subject:   username,
			IssuedAt:  s.now().Unix(),
			ExpiresAt: expirationTime.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("sign token: %w", err))
	}
	s.logger.InfoContext(ctx, "admin logged in", "username", username)
	return &LoginResponse{Token: tokenString, ExpiresAt: time.Unix(expirationTime.Unix(), 0).UTC()}, nil
}

func (s *service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.UnauthorizedErr("invalid or expired token")
	}
	return claims, nil
}
