package sqlstore

import (
	"context"
	"fmt"
)

// Decimals are stored as exact decimal text; dates as YYYY-MM-DD; instants as RFC3339 UTC.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS movements (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		date          TEXT NOT NULL,
		investor_name TEXT NOT NULL,
		kind          TEXT NOT NULL,
		cash_amount   TEXT NOT NULL,
		quota_at_time TEXT NOT NULL,
		share_delta   TEXT NOT NULL,
		ticker_ref    TEXT NOT NULL DEFAULT 'CASH'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_replay ON movements(date, id)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_investor ON movements(investor_name)`,
	`CREATE TABLE IF NOT EXISTS asset_positions (
		ticker        TEXT PRIMARY KEY,
		quantity      TEXT NOT NULL,
		average_cost  TEXT NOT NULL,
		current_price TEXT NOT NULL,
		stop_loss     TEXT NOT NULL DEFAULT '0',
		category      TEXT NOT NULL,
		priced_at     TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS quota_history (
		date        TEXT PRIMARY KEY,
		quota_value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS price_marks (
		id        TEXT PRIMARY KEY,
		marked_at TEXT NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS movements (
		id            BIGSERIAL PRIMARY KEY,
		date          TEXT NOT NULL,
		investor_name TEXT NOT NULL,
		kind          TEXT NOT NULL,
		cash_amount   NUMERIC NOT NULL,
		quota_at_time NUMERIC NOT NULL,
		share_delta   NUMERIC NOT NULL,
		ticker_ref    TEXT NOT NULL DEFAULT 'CASH'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_replay ON movements(date, id)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_investor ON movements(investor_name)`,
	`CREATE TABLE IF NOT EXISTS asset_positions (
		ticker        TEXT PRIMARY KEY,
		quantity      NUMERIC NOT NULL,
		average_cost  NUMERIC NOT NULL,
		current_price NUMERIC NOT NULL,
		stop_loss     NUMERIC NOT NULL DEFAULT 0,
		category      TEXT NOT NULL,
		priced_at     TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS quota_history (
		date        TEXT PRIMARY KEY,
		quota_value NUMERIC NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS price_marks (
		id        UUID PRIMARY KEY,
		marked_at TEXT NOT NULL
	)`,
}

// Migrate creates the ledger tables when they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if s.dialect == DialectPostgres {
		stmts = postgresSchema
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate %s schema: %w", s.dialect, err)
		}
	}

	return nil
}
