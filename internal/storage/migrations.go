package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Raw transactions",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS transactions (
					hash TEXT PRIMARY KEY,
					transaction_id TEXT NOT NULL,
					batch_id TEXT,
					account_id TEXT,
					subscription_id TEXT,
					customer_id TEXT NOT NULL,
					currency_code TEXT,
					country_code TEXT,
					provider_id TEXT,
					product_id TEXT,
					product_category TEXT,
					channel_id TEXT,
					amount REAL,
					value REAL,
					start_time TEXT,
					pricing_strategy TEXT,
					fraud_result TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_customer ON transactions(customer_id)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Labeling runs and labels",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS labeling_runs (
					id TEXT PRIMARY KEY,
					seed INTEGER NOT NULL,
					clusters INTEGER NOT NULL,
					customers INTEGER NOT NULL,
					degenerate INTEGER NOT NULL DEFAULT 0,
					snapshot DATETIME,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_labeling_runs_created ON labeling_runs(created_at)`,

				`CREATE TABLE IF NOT EXISTS risk_labels (
					run_id TEXT NOT NULL,
					customer_id TEXT NOT NULL,
					is_high_risk INTEGER NOT NULL CHECK (is_high_risk IN (0, 1)),
					PRIMARY KEY (run_id, customer_id),
					FOREIGN KEY (run_id) REFERENCES labeling_runs(id) ON DELETE CASCADE
				)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Cluster profiles and run warnings",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS cluster_profiles (
					run_id TEXT NOT NULL,
					cluster_index INTEGER NOT NULL,
					rank INTEGER NOT NULL,
					size INTEGER NOT NULL,
					mean_recency REAL NOT NULL,
					mean_frequency REAL NOT NULL,
					mean_monetary REAL NOT NULL,
					high_risk INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (run_id, cluster_index),
					FOREIGN KEY (run_id) REFERENCES labeling_runs(id) ON DELETE CASCADE
				)`,
				`ALTER TABLE labeling_runs ADD COLUMN warnings TEXT NOT NULL DEFAULT '[]'`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
