// Package database opens the Postgres pool and keeps the schema current.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{"create payment_records", `
		CREATE TABLE IF NOT EXISTS payment_records (
			id                 UUID PRIMARY KEY,
			reference_number   VARCHAR(64)   NOT NULL UNIQUE,
			payment_request_id VARCHAR(128)  UNIQUE,
			amount             NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			currency           VARCHAR(3)    NOT NULL,
			name               VARCHAR(255)  NOT NULL,
			email              VARCHAR(254)  NOT NULL,
			phone              VARCHAR(32),
			purpose            VARCHAR(255),
			status             VARCHAR(20)   NOT NULL DEFAULT 'pending'
			                   CHECK (status IN ('pending','completed','failed','cancelled')),
			checkout_url       TEXT,
			gateway_payment_id VARCHAR(128),
			gateway_status     VARCHAR(64),
			created_at         TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			paid_at            TIMESTAMPTZ,
			CONSTRAINT paid_at_iff_completed CHECK ((status = 'completed') = (paid_at IS NOT NULL))
		)`},
	{"index payment_records stale sweep", `
		CREATE INDEX IF NOT EXISTS idx_payment_records_pending_created
			ON payment_records (created_at) WHERE status = 'pending'`},
	{"create reviews", `
		CREATE TABLE IF NOT EXISTS reviews (
			id          UUID PRIMARY KEY,
			author_name VARCHAR(100) NOT NULL,
			rating      INTEGER      NOT NULL CHECK (rating BETWEEN 1 AND 5),
			text        TEXT         NOT NULL,
			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`},
	{"index reviews created_at", `
		CREATE INDEX IF NOT EXISTS idx_reviews_created_at ON reviews (created_at DESC)`},
}

// RunMigrations applies every idempotent schema statement in order.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	logger.InfoContext(ctx, "running database migrations", "count", len(migrations))
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %q: %w", m.name, err)
		}
		logger.DebugContext(ctx, "migration applied", "name", m.name)
	}
	logger.InfoContext(ctx, "database migrations completed")
	return nil
}
