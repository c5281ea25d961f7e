// backend-go/internal/repository/postgres/schema.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements builds the full schema from nothing. Every statement is
// idempotent so EnsureSchema can run on every boot of the fit CLI.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		area TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		opened_at TIMESTAMPTZ,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS monthly_sales (
		id BIGSERIAL PRIMARY KEY,
		store_id BIGINT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
		month DATE NOT NULL,
		net_sales DOUBLE PRECISION NOT NULL DEFAULT 0,
		transactions BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (store_id, month)
	)`,
	`CREATE TABLE IF NOT EXISTS budgets (
		id BIGSERIAL PRIMARY KEY,
		store_id BIGINT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
		month DATE NOT NULL,
		amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		UNIQUE (store_id, month)
	)`,
	`CREATE TABLE IF NOT EXISTS store_models (
		id BIGSERIAL PRIMARY KEY,
		store_id BIGINT NOT NULL UNIQUE REFERENCES stores(id) ON DELETE CASCADE,
		mode TEXT NOT NULL,
		k DOUBLE PRECISION NOT NULL,
		l DOUBLE PRECISION NOT NULL,
		l_post DOUBLE PRECISION NOT NULL DEFAULT 0,
		l_post2 DOUBLE PRECISION NOT NULL DEFAULT 0,
		base DOUBLE PRECISION NOT NULL DEFAULT 0,
		t0_strategy TEXT NOT NULL,
		t0 DOUBLE PRECISION NOT NULL DEFAULT 0,
		initial_ratio DOUBLE PRECISION NOT NULL DEFAULT 0,
		shock_idx INTEGER NOT NULL DEFAULT 0,
		shock_idx2 INTEGER NOT NULL DEFAULT 0,
		nudge DOUBLE PRECISION NOT NULL DEFAULT 0,
		nudge_decay DOUBLE PRECISION NOT NULL DEFAULT 0,
		std_dev DOUBLE PRECISION NOT NULL DEFAULT 0,
		seasonal DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
		series_start DATE NOT NULL,
		sample_months INTEGER NOT NULL,
		rmse DOUBLE PRECISION NOT NULL DEFAULT 0,
		mape DOUBLE PRECISION NOT NULL DEFAULT 0,
		fitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS fit_runs (
		id BIGSERIAL PRIMARY KEY,
		triggered_by TEXT NOT NULL,
		fitter TEXT NOT NULL,
		status TEXT NOT NULL,
		total_stores INTEGER NOT NULL DEFAULT 0,
		fitted_stores INTEGER NOT NULL DEFAULT 0,
		skipped_stores INTEGER NOT NULL DEFAULT 0,
		failed_stores INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ,
		error_message TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS fit_jobs (
		id BIGSERIAL PRIMARY KEY,
		fit_run_id BIGINT NOT NULL REFERENCES fit_runs(id) ON DELETE CASCADE,
		store_id BIGINT NOT NULL,
		store_name TEXT NOT NULL DEFAULT '',
		months INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		processed_at TIMESTAMPTZ,
		retry_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_monthly_sales_month ON monthly_sales (month)`,
	`CREATE INDEX IF NOT EXISTS idx_budgets_month ON budgets (month)`,
	`CREATE INDEX IF NOT EXISTS idx_fit_jobs_run ON fit_jobs (fit_run_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_stores_area ON stores (area)`,
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
