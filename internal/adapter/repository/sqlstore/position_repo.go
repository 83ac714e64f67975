package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/fundquota-backend/internal/domain"
)

// positionRepository implements domain.PositionRepository
type positionRepository struct {
	q       querier
	dialect Dialect
	lock    bool
}

const positionColumns = `ticker, quantity, average_cost, current_price, stop_loss, category, priced_at`

// GetByTicker retrieves a position by its ticker
func (r *positionRepository) GetByTicker(ctx context.Context, ticker string) (*domain.AssetPosition, error) {
	p, err := scanPosition(r.q.QueryRowContext(ctx, r.getByTickerQuery(), ticker))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("position %s: %w", ticker, domain.ErrNotFound)
		}
		return nil, err
	}

	return p, nil
}

func (r *positionRepository) getByTickerQuery() string {
	query := `SELECT ` + positionColumns + ` FROM asset_positions WHERE ticker = ?`
	if r.lock {
		query += ` FOR UPDATE`
	}
	return r.dialect.Rebind(query)
}

// List retrieves every position ordered by ticker
func (r *positionRepository) List(ctx context.Context) ([]*domain.AssetPosition, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+positionColumns+` FROM asset_positions ORDER BY ticker`)
	if err != nil {
		return nil, storeErr("list positions", err)
	}
	defer rows.Close()

	var positions []*domain.AssetPosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate positions", err)
	}

	return positions, nil
}

// Create inserts a new position
func (r *positionRepository) Create(ctx context.Context, p *domain.AssetPosition) error {
	query := r.dialect.Rebind(`
		INSERT INTO asset_positions (ticker, quantity, average_cost, current_price, stop_loss, category, priced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.q.ExecContext(ctx, query,
		p.Ticker,
		p.Quantity.String(),
		p.AverageCost.String(),
		p.CurrentPrice.String(),
		p.StopLoss.String(),
		string(p.Category),
		formatInstant(p.PricedAt),
	)
	if err != nil {
		return storeErr("create position", err)
	}

	return nil
}

// Update overwrites every column of an existing position
func (r *positionRepository) Update(ctx context.Context, p *domain.AssetPosition) error {
	query := r.dialect.Rebind(`
		UPDATE asset_positions
		SET quantity = ?, average_cost = ?, current_price = ?, stop_loss = ?, category = ?, priced_at = ?
		WHERE ticker = ?
	`)

	res, err := r.q.ExecContext(ctx, query,
		p.Quantity.String(),
		p.AverageCost.String(),
		p.CurrentPrice.String(),
		p.StopLoss.String(),
		string(p.Category),
		formatInstant(p.PricedAt),
		p.Ticker,
	)
	if err != nil {
		return storeErr("update position", err)
	}

	return checkAffected(res, "update position", "position "+p.Ticker)
}

// Delete removes a position by its ticker
func (r *positionRepository) Delete(ctx context.Context, ticker string) error {
	res, err := r.q.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM asset_positions WHERE ticker = ?`), ticker)
	if err != nil {
		return storeErr("delete position", err)
	}

	return checkAffected(res, "delete position", "position "+ticker)
}

func scanPosition(row rowScanner) (*domain.AssetPosition, error) {
	var p domain.AssetPosition
	var qtyStr, avgStr, priceStr, stopStr, category string
	var pricedAt sql.NullString

	err := row.Scan(&p.Ticker, &qtyStr, &avgStr, &priceStr, &stopStr, &category, &pricedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storeErr("scan position", err)
	}

	p.Category = domain.Category(category)

	if p.Quantity, err = parseDecimal(qtyStr, "quantity"); err != nil {
		return nil, err
	}
	if p.AverageCost, err = parseDecimal(avgStr, "average_cost"); err != nil {
		return nil, err
	}
	if p.CurrentPrice, err = parseDecimal(priceStr, "current_price"); err != nil {
		return nil, err
	}
	if p.StopLoss, err = parseDecimal(stopStr, "stop_loss"); err != nil {
		return nil, err
	}
	if p.PricedAt, err = parseInstant(pricedAt, "priced_at"); err != nil {
		return nil, err
	}

	return &p, nil
}
