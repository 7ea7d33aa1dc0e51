// Package server assembles the HTTP router from the module handlers.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
	"github.com/georgemunganga/hitpay-reviews/internal/httpx"
	"github.com/georgemunganga/hitpay-reviews/internal/modules/auth"
	"github.com/georgemunganga/hitpay-reviews/internal/modules/payment"
	"github.com/georgemunganga/hitpay-reviews/internal/modules/review"
)

// Deps are the services the router serves.
type Deps struct {
	Payments       payment.Service
	Reviews        review.Service
	Auth           auth.Service // nil leaves the status override ungated
	AllowedOrigins []string
	// Health reports whether the backing store is reachable.
	Health func(ctx context.Context) error
	Logger *slog.Logger
}

func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(httpx.RequestLogger(logger))
	router.Use(httpx.Recoverer(logger))
	router.Use(middleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", healthz(d.Health))

	var adminOnly func(http.Handler) http.Handler
	if d.Auth != nil {
		adminOnly = auth.RequireAdmin(d.Auth)
	}

	router.Route("/api", func(r chi.Router) {
		payment.NewHandler(d.Payments, logger, adminOnly).RegisterRoutes(r)
		review.NewHandler(d.Reviews, logger).RegisterRoutes(r)
		if d.Auth != nil {
			auth.NewHandler(d.Auth, logger).RegisterRoutes(r)
		}
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, r, logger, apperr.NotFoundErr("not found"))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, r, logger, apperr.MethodNotAllowedErr("method not allowed"))
	})
	return router
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				httpx.Respond(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
