package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			tenant_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			phone TEXT,
			expected_rent_amount TEXT,
			property_ref TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tenants_property ON tenants(property_ref)`,

		// receipt_id UNIQUE is the cross-run duplicate-confirmation guard.
		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			property_ref TEXT NOT NULL,
			amount TEXT NOT NULL,
			method TEXT NOT NULL,
			receipt_id TEXT UNIQUE NOT NULL,
			payer_phone TEXT,
			payer_name TEXT,
			description TEXT NOT NULL,
			confidence INTEGER NOT NULL,
			paid_at DATETIME NOT NULL,
			recorded_at DATETIME NOT NULL,
			FOREIGN KEY (tenant_id) REFERENCES tenants(tenant_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_tenant ON payments(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_paid_at ON payments(paid_at)`,

		`CREATE TABLE IF NOT EXISTS upload_runs (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			file_hash TEXT NOT NULL,
			rows_parsed INTEGER NOT NULL,
			rows_skipped INTEGER NOT NULL,
			eligible_count INTEGER NOT NULL,
			matched_count INTEGER NOT NULL,
			unmatched_count INTEGER NOT NULL,
			received_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_upload_runs_hash ON upload_runs(file_hash)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
