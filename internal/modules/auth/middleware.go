package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
	"github.com/georgemunganga/hitpay-reviews/internal/httpx"
)

type ctxKey struct{}

// ClaimsFrom returns the claims RequireAdmin stored on the request context.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}

// RequireAdmin rejects requests without a valid admin bearer token.
func RequireAdmin(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httpx.Error(w, r, nil, apperr.UnauthorizedErr("missing bearer token"))
				return
			}
			claims, err := svc.ParseToken(raw)
			if err != nil {
				httpx.Error(w, r, nil, err)
				return
			}
			if claims.Role != RoleAdmin {
				httpx.Error(w, r, nil, apperr.ForbiddenErr("admin role required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}
