package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/simaogato/fundquota-backend/internal/adapter/repository/sqlstore"
)

// Open opens (or creates) the ledger file and runs migrations.
// The handle is limited to a single connection so every write is serialized.
func Open(ctx context.Context, path string) (*sqlstore.Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	store := sqlstore.New(db, sqlstore.DialectSQLite)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("driver", "sqlite").Str("path", path).Msg("ledger store opened")
	return store, nil
}
