package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/simaogato/fundquota-backend/internal/domain"
)

// Dialect selects the SQL flavour of the underlying driver
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Rebind rewrites ? placeholders into the dialect's native form
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scope binds the repositories to a querier.
// Inside a transaction, locking makes position reads take row locks on
// dialects that support them.
type scope struct {
	q       querier
	dialect Dialect
	locking bool
}

func (s scope) Movements() domain.MovementRepository {
	return &movementRepository{q: s.q, dialect: s.dialect}
}

func (s scope) Positions() domain.PositionRepository {
	return &positionRepository{q: s.q, dialect: s.dialect, lock: s.locking && s.dialect == DialectPostgres}
}

func (s scope) QuotaHistory() domain.QuotaHistoryRepository {
	return &quotaHistoryRepository{q: s.q, dialect: s.dialect}
}

func (s scope) PriceMarks() domain.PriceMarkRepository {
	return &priceMarkRepository{q: s.q, dialect: s.dialect}
}

// Store implements domain.LedgerStore on top of database/sql
type Store struct {
	scope
	db *sql.DB
}

// New wraps an open database handle. Call Migrate before first use.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		scope: scope{q: db, dialect: dialect},
		db:    db,
	}
}

// DB exposes the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect reports the SQL flavour of the store
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// WithinTx runs fn inside a database transaction.
// On PostgreSQL every position read by ticker holds the row with FOR UPDATE
// until commit, so concurrent writers of the CASH row queue behind each other.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, scope{q: tx, dialect: s.dialect, locking: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit transaction", err)
	}

	return nil
}

// storeErr wraps a driver failure so callers can match domain.ErrStoreUnavailable
func storeErr(op string, err error) error {
	return fmt.Errorf("failed to %s: %w", op, errors.Join(domain.ErrStoreUnavailable, err))
}

// checkAffected turns an update or delete that touched no row into ErrNotFound
func checkAffected(res sql.Result, op, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
