package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	"github.com/simaogato/fundquota-backend/internal/adapter/repository/sqlstore"
)

// Open connects to PostgreSQL and prepares the ledger schema
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=fundquota sslmode=disable"
func Open(ctx context.Context, connectionString string) (*sqlstore.Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := sqlstore.New(db, sqlstore.DialectPostgres)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("driver", "postgres").Msg("ledger store opened")
	return store, nil
}
