package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/fundquota-backend/internal/domain"
)

// priceMarkRepository implements domain.PriceMarkRepository
type priceMarkRepository struct {
	q       querier
	dialect Dialect
}

// Create inserts a new price mark
func (r *priceMarkRepository) Create(ctx context.Context, mark *domain.PriceMark) error {
	query := r.dialect.Rebind(`INSERT INTO price_marks (id, marked_at) VALUES (?, ?)`)

	if _, err := r.q.ExecContext(ctx, query, mark.ID.String(), formatInstant(mark.MarkedAt)); err != nil {
		return storeErr("create price mark", err)
	}

	return nil
}

// GetByID retrieves a price mark by its token
func (r *priceMarkRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PriceMark, error) {
	query := r.dialect.Rebind(`SELECT id, marked_at FROM price_marks WHERE id = ?`)

	var idStr string
	var markedAt sql.NullString
	err := r.q.QueryRowContext(ctx, query, id.String()).Scan(&idStr, &markedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("price mark %s: %w", id, domain.ErrNotFound)
		}
		return nil, storeErr("get price mark", err)
	}

	mark := domain.PriceMark{}
	if mark.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("failed to parse price mark id: %w", err)
	}
	if mark.MarkedAt, err = parseInstant(markedAt, "marked_at"); err != nil {
		return nil, err
	}

	return &mark, nil
}
