package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/georgemunganga/hitpay-reviews/internal/config"
	"github.com/georgemunganga/hitpay-reviews/internal/database"
	"github.com/georgemunganga/hitpay-reviews/internal/modules/payment"
)

func openDB(ctx context.Context) (*config.Config, *sql.DB, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))
	db, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, logger, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, logger, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			return database.RunMigrations(cmd.Context(), db, logger)
		},
	}
}

func sweepCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Cancel pending payments that never received a checkout URL",
		Long: `Cancel pending payment records older than --older-than that have no
checkout URL. These are left behind when the process dies between creating
the record and hearing back from HitPay.

Examples:
  payctl sweep
  payctl sweep --older-than 2h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, logger, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := payment.NewService(payment.NewPostgresRepository(db), payment.NewHitPayGateway(payment.GatewayConfig{
				BaseURL: cfg.HitPay.BaseURL,
				APIKey:  cfg.HitPay.APIKey,
				Timeout: cfg.HitPay.Timeout,
			}), payment.Config{
				DefaultCurrency: cfg.Payment.DefaultCurrency,
				RedirectURL:     cfg.Payment.RedirectURL,
				WebhookURL:      cfg.HitPay.WebhookURL,
				Salt:            cfg.HitPay.Salt,
			}, logger)

			n, err := svc.CancelStale(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %d stale payment(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*time.Minute, "minimum age of a pending record to cancel")
	return cmd
}
