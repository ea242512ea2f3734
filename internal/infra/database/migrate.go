package database

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are idempotent CREATE IF NOT EXISTS statements. The audit_log
// table is listed last and may legitimately be provisioned later than the
// rest; repositories tolerate its absence via ErrSchemaMissing.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		service_type TEXT NOT NULL,
		packages TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'unpaid',
		address TEXT NOT NULL DEFAULT '',
		mobile TEXT NOT NULL DEFAULT '',
		box_number TEXT NOT NULL DEFAULT '',
		mac_address TEXT NOT NULL DEFAULT '',
		last_payment_date DATE,
		excluded_from_reset BOOLEAN NOT NULL DEFAULT FALSE,
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS packages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		service_type TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS bundles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		package_ids TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_status ON customers (status) WHERE NOT deleted`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_customer ON audit_log (customer_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log (action, created_at DESC)`,
}

// Migrate provisions the schema. Safe to run on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
