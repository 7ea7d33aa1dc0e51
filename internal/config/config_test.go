package config

import (
	"log/slog"
	"testing"
	"time"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"DATABASE_URL": "postgres://localhost/reviews",
		"HITPAY_SALT":  "salt",
	}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.App.Port != "8080" {
		t.Errorf("Port = %q", cfg.App.Port)
	}
	if cfg.Payment.DefaultCurrency != "SGD" {
		t.Errorf("DefaultCurrency = %q", cfg.Payment.DefaultCurrency)
	}
	if cfg.HitPay.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v", cfg.HitPay.Timeout)
	}
	if cfg.Admin.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.Admin.TokenTTL)
	}
	if len(cfg.CORS.AllowedOrigins) != len(defaultOrigins) {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Log.Level != slog.LevelInfo {
		t.Errorf("Level = %v", cfg.Log.Level)
	}
	if cfg.AdminGated() {
		t.Error("admin should not be gated without a password hash")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"DATABASE_URL":             "postgres://db/x",
		"HITPAY_SALT":              "salt",
		"HITPAY_API_BASE_URL":      "https://api.hit-pay.com/v1/",
		"HITPAY_TIMEOUT":           "3s",
		"PAYMENT_DEFAULT_CURRENCY": "myr",
		"CORS_ALLOWED_ORIGINS":     "https://a.example, https://b.example,",
		"ADMIN_PASSWORD_HASH":      "$2a$10$hash",
		"JWT_SECRET":               "jwt",
		"LOG_LEVEL":                "debug",
	}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.HitPay.BaseURL != "https://api.hit-pay.com/v1" {
		t.Errorf("BaseURL = %q", cfg.HitPay.BaseURL)
	}
	if cfg.HitPay.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v", cfg.HitPay.Timeout)
	}
	if cfg.Payment.DefaultCurrency != "MYR" {
		t.Errorf("DefaultCurrency = %q", cfg.Payment.DefaultCurrency)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.AdminGated() {
		t.Error("admin should be gated")
	}
	if cfg.Log.Level != slog.LevelDebug {
		t.Errorf("Level = %v", cfg.Log.Level)
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"HITPAY_SALT": "s"}},
		{"missing salt", map[string]string{"DATABASE_URL": "x"}},
		{"bad timeout", map[string]string{"DATABASE_URL": "x", "HITPAY_SALT": "s", "HITPAY_TIMEOUT": "soon"}},
		{"hash without secret", map[string]string{"DATABASE_URL": "x", "HITPAY_SALT": "s", "ADMIN_PASSWORD_HASH": "h"}},
		{"bad level", map[string]string{"DATABASE_URL": "x", "HITPAY_SALT": "s", "LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromEnv(envOf(tt.env)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
