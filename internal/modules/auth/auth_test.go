package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
)

const testSecret = "test-jwt-secret"

func testConfig(t *testing.T) Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return Config{Username: "admin", PasswordHash: string(hash), JWTSecret: testSecret, TokenTTL: time.Hour}
}

func newTestService(cfg Config) *service {
	return NewService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
}

func TestLogin(t *testing.T) {
	cfg := testConfig(t)
	tests := []struct {
		name     string
		cfg      Config
		user     string
		pass     string
		wantKind apperr.Kind
	}{
		{"valid", cfg, "admin", "s3cret", ""},
		{"wrong password", cfg, "admin", "nope", apperr.Unauthorized},
		{"wrong user", cfg, "root", "s3cret", apperr.Unauthorized},
		{"disabled", Config{Username: "admin", JWTSecret: testSecret}, "admin", "", apperr.Unauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(tt.cfg)
			resp, err := s.Login(context.Background(), tt.user, tt.pass)
			if tt.wantKind != "" {
				if !apperr.IsKind(err, tt.wantKind) {
					t.Fatalf("err = %v, want %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if resp.Token == "" || time.Until(resp.ExpiresAt) > time.Hour || time.Until(resp.ExpiresAt) < 59*time.Minute {
				t.Errorf("resp = %+v", resp)
			}
			claims, err := s.ParseToken(resp.Token)
			if err != nil {
				t.Fatalf("ParseToken() error = %v", err)
			}
			if claims.Role != RoleAdmin || claims.Subject != "admin" {
				t.Errorf("claims = %+v", claims)
			}
		})
	}
}

func TestParseTokenRejects(t *testing.T) {
	cfg := testConfig(t)
	s := newTestService(cfg)

	stale := newTestService(cfg)
	stale.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, err := stale.Login(context.Background(), "admin", "s3cret")
	if err != nil {
		t.Fatal(err)
	}

	otherCfg := cfg
	otherCfg.JWTSecret = "other"
	foreign, err := newTestService(otherCfg).Login(context.Background(), "admin", "s3cret")
	if err != nil {
		t.Fatal(err)
	}

	for name, tok := range map[string]string{
		"expired":      expired.Token,
		"wrong secret": foreign.Token,
		"garbage":      "not.a.jwt",
		"unsigned":     unsignedToken(t),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := s.ParseToken(tok); !apperr.IsKind(err, apperr.Unauthorized) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func unsignedToken(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: RoleAdmin})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func signRole(t *testing.T, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role:           role,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRequireAdmin(t *testing.T) {
	s := newTestService(testConfig(t))
	login, err := s.Login(context.Background(), "admin", "s3cret")
	if err != nil {
		t.Fatal(err)
	}

	var seen *Claims
	protected := RequireAdmin(s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"admin", "Bearer " + login.Token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + login.Token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"basic scheme", "Basic YWRtaW46eA==", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"non-admin role", "Bearer " + signRole(t, "viewer"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusNoContent && (seen == nil || seen.Role != RoleAdmin) {
				t.Errorf("claims not on context: %+v", seen)
			}
			if tt.wantStatus != http.StatusNoContent && !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(newTestService(testConfig(t)), nil).RegisterRoutes(r)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"ok", `{"username":"admin","password":"s3cret"}`, http.StatusOK},
		{"bad password", `{"username":"admin","password":"x"}`, http.StatusUnauthorized},
		{"missing password", `{"username":"admin"}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body)))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp LoginResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
				t.Errorf("resp = %s, err %v", w.Body.String(), err)
			}
		})
	}
}
