package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/fundquota-backend/internal/domain"
)

// movementRepository implements domain.MovementRepository
type movementRepository struct {
	q       querier
	dialect Dialect
}

const movementColumns = `id, date, investor_name, kind, cash_amount, quota_at_time, share_delta, ticker_ref`

// Create inserts a new movement and sets its ID
func (r *movementRepository) Create(ctx context.Context, m *domain.Movement) error {
	query := r.dialect.Rebind(`
		INSERT INTO movements (date, investor_name, kind, cash_amount, quota_at_time, share_delta, ticker_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	tickerRef := m.TickerRef
	if tickerRef == "" {
		tickerRef = domain.CashTicker
	}

	err := r.q.QueryRowContext(ctx, query,
		domain.FormatDate(m.Date),
		m.InvestorName,
		string(m.Kind),
		m.CashAmount.String(),
		m.QuotaAtTime.String(),
		m.ShareDelta.String(),
		tickerRef,
	).Scan(&m.ID)
	if err != nil {
		return storeErr("create movement", err)
	}

	m.TickerRef = tickerRef
	return nil
}

// GetByID retrieves a movement by its ID
func (r *movementRepository) GetByID(ctx context.Context, id int64) (*domain.Movement, error) {
	query := r.dialect.Rebind(`SELECT ` + movementColumns + ` FROM movements WHERE id = ?`)

	m, err := scanMovement(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("movement %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	return m, nil
}

// List retrieves every movement in replay order
func (r *movementRepository) List(ctx context.Context) ([]*domain.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM movements ORDER BY date, id`)
}

// ListByInvestor retrieves the movements of one investor in replay order
func (r *movementRepository) ListByInvestor(ctx context.Context, investorName string) ([]*domain.Movement, error) {
	return r.list(ctx,
		`SELECT `+movementColumns+` FROM movements WHERE investor_name = ? ORDER BY date, id`,
		investorName,
	)
}

// Recent retrieves the latest movements by id descending
func (r *movementRepository) Recent(ctx context.Context, limit int) ([]*domain.Movement, error) {
	return r.list(ctx,
		`SELECT `+movementColumns+` FROM movements ORDER BY id DESC LIMIT ?`,
		limit,
	)
}

// Update overwrites every column of an existing movement
func (r *movementRepository) Update(ctx context.Context, m *domain.Movement) error {
	query := r.dialect.Rebind(`
		UPDATE movements
		SET date = ?, investor_name = ?, kind = ?, cash_amount = ?, quota_at_time = ?, share_delta = ?, ticker_ref = ?
		WHERE id = ?
	`)

	res, err := r.q.ExecContext(ctx, query,
		domain.FormatDate(m.Date),
		m.InvestorName,
		string(m.Kind),
		m.CashAmount.String(),
		m.QuotaAtTime.String(),
		m.ShareDelta.String(),
		m.TickerRef,
		m.ID,
	)
	if err != nil {
		return storeErr("update movement", err)
	}

	return checkAffected(res, "update movement", fmt.Sprintf("movement %d", m.ID))
}

// Delete removes a movement by its ID
func (r *movementRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM movements WHERE id = ?`), id)
	if err != nil {
		return storeErr("delete movement", err)
	}

	return checkAffected(res, "delete movement", fmt.Sprintf("movement %d", id))
}

func (r *movementRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Movement, error) {
	rows, err := r.q.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, storeErr("list movements", err)
	}
	defer rows.Close()

	var movements []*domain.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate movements", err)
	}

	return movements, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovement(row rowScanner) (*domain.Movement, error) {
	var m domain.Movement
	var dateStr, kind, cashStr, quotaStr, deltaStr string

	err := row.Scan(
		&m.ID,
		&dateStr,
		&m.InvestorName,
		&kind,
		&cashStr,
		&quotaStr,
		&deltaStr,
		&m.TickerRef,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storeErr("scan movement", err)
	}

	m.Kind = domain.MovementKind(kind)

	if m.Date, err = parseDate(dateStr, "date"); err != nil {
		return nil, err
	}
	if m.CashAmount, err = parseDecimal(cashStr, "cash_amount"); err != nil {
		return nil, err
	}
	if m.QuotaAtTime, err = parseDecimal(quotaStr, "quota_at_time"); err != nil {
		return nil, err
	}
	if m.ShareDelta, err = parseDecimal(deltaStr, "share_delta"); err != nil {
		return nil, err
	}

	return &m, nil
}
