// Package config loads runtime settings from the environment (and .env when present).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full application configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	HitPay   HitPayConfig
	Payment  PaymentConfig
	Admin    AdminConfig
	CORS     CORSConfig
	Log      LogConfig
}

type AppConfig struct {
	Port string
	Env  string // development | production
}

type DatabaseConfig struct {
	URL string
}

// HitPayConfig holds the gateway credentials. Secrets are read as-is; nothing
// here enforces how they are stored.
type HitPayConfig struct {
	BaseURL    string
	APIKey     string
	Salt       string
	WebhookURL string
	Timeout    time.Duration
}

type PaymentConfig struct {
	RedirectURL     string
	DefaultCurrency string
}

type AdminConfig struct {
	Username     string
	PasswordHash string // bcrypt; empty leaves the override endpoint ungated
	JWTSecret    string
	TokenTTL     time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level slog.Level
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:8080",
	"http://127.0.0.1:8080",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:8082",
	"http://127.0.0.1:8082",
}

// Load reads .env (if any) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	hitpayTimeout, err := time.ParseDuration(get("HITPAY_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HITPAY_TIMEOUT: %w", err)
	}
	tokenTTL, err := time.ParseDuration(get("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(get("LOG_LEVEL", "INFO"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	origins := defaultOrigins
	if raw := get("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		origins = nil
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	cfg := &Config{
		App: AppConfig{
			Port: get("APP_PORT", "8080"),
			Env:  get("APP_ENV", "development"),
		},
		Database: DatabaseConfig{URL: get("DATABASE_URL", "")},
		HitPay: HitPayConfig{
			BaseURL:    strings.TrimRight(get("HITPAY_API_BASE_URL", "https://api.sandbox.hit-pay.com/v1"), "/"),
			APIKey:     get("HITPAY_API_KEY", ""),
			Salt:       get("HITPAY_SALT", ""),
			WebhookURL: get("HITPAY_WEBHOOK_URL", "http://localhost:8000/api/payments/hitpay/webhook/"),
			Timeout:    hitpayTimeout,
		},
		Payment: PaymentConfig{
			RedirectURL:     get("PAYMENT_REDIRECT_URL", "http://localhost:8080/payment/status"),
			DefaultCurrency: strings.ToUpper(get("PAYMENT_DEFAULT_CURRENCY", "SGD")),
		},
		Admin: AdminConfig{
			Username:     get("ADMIN_USERNAME", "admin"),
			PasswordHash: get("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    get("JWT_SECRET", ""),
			TokenTTL:     tokenTTL,
		},
		CORS: CORSConfig{AllowedOrigins: origins},
		Log:  LogConfig{Level: level},
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.HitPay.Salt == "" {
		return errors.New("HITPAY_SALT is required")
	}
	if c.Admin.PasswordHash != "" && c.Admin.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	return nil
}

// AdminGated reports whether the administrative endpoints require a token.
func (c *Config) AdminGated() bool { return c.Admin.PasswordHash != "" }
