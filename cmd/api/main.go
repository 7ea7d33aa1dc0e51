package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/hitpay-reviews/internal/config"
	"github.com/georgemunganga/hitpay-reviews/internal/database"
	"github.com/georgemunganga/hitpay-reviews/internal/modules/auth"
	"github.com/georgemunganga/hitpay-reviews/internal/modules/payment"
	"github.com/georgemunganga/hitpay-reviews/internal/modules/review"
	"github.com/georgemunganga/hitpay-reviews/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to the database")

	if err := database.RunMigrations(ctx, db, logger); err != nil {
		return err
	}

	// ── Payments ────────────────────────────────────────────
	gateway := payment.NewHitPayGateway(payment.GatewayConfig{
		BaseURL: cfg.HitPay.BaseURL,
		APIKey:  cfg.HitPay.APIKey,
		Timeout: cfg.HitPay.Timeout,
	})
	paymentService := payment.NewService(payment.NewPostgresRepository(db), gateway, payment.Config{
		DefaultCurrency: cfg.Payment.DefaultCurrency,
		RedirectURL:     cfg.Payment.RedirectURL,
		WebhookURL:      cfg.HitPay.WebhookURL,
		Salt:            cfg.HitPay.Salt,
	}, logger.With("module", "payment"))

	// ── Reviews ─────────────────────────────────────────────
	reviewService := review.NewService(review.NewPostgresRepository(db), logger.With("module", "review"))

	// ── Admin auth ──────────────────────────────────────────
	var authService auth.Service
	if cfg.AdminGated() {
		authService = auth.NewService(auth.Config{
			Username:     cfg.Admin.Username,
			PasswordHash: cfg.Admin.PasswordHash,
			JWTSecret:    cfg.Admin.JWTSecret,
			TokenTTL:     cfg.Admin.TokenTTL,
		}, logger.With("module", "auth"))
	} else {
		logger.Warn("ADMIN_PASSWORD_HASH is not set: payment status override is unauthenticated")
	}

	router := server.NewRouter(server.Deps{
		Payments:       paymentService,
		Reviews:        reviewService,
		Auth:           authService,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Health:         db.PingContext,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.App.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
