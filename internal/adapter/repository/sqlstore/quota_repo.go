package sqlstore

import (
	"context"

	"github.com/simaogato/fundquota-backend/internal/domain"
)

// quotaHistoryRepository implements domain.QuotaHistoryRepository
type quotaHistoryRepository struct {
	q       querier
	dialect Dialect
}

// Upsert replaces the point registered for the same date, if any
func (r *quotaHistoryRepository) Upsert(ctx context.Context, point *domain.QuotaPoint) error {
	query := r.dialect.Rebind(`
		INSERT INTO quota_history (date, quota_value)
		VALUES (?, ?)
		ON CONFLICT (date) DO UPDATE SET quota_value = excluded.quota_value
	`)

	if _, err := r.q.ExecContext(ctx, query, domain.FormatDate(point.Date), point.Value.String()); err != nil {
		return storeErr("upsert quota history", err)
	}

	return nil
}

// List retrieves every point ordered by date
func (r *quotaHistoryRepository) List(ctx context.Context) ([]*domain.QuotaPoint, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT date, quota_value FROM quota_history ORDER BY date`)
	if err != nil {
		return nil, storeErr("list quota history", err)
	}
	defer rows.Close()

	var points []*domain.QuotaPoint
	for rows.Next() {
		var dateStr, valueStr string
		if err := rows.Scan(&dateStr, &valueStr); err != nil {
			return nil, storeErr("scan quota history", err)
		}

		date, err := parseDate(dateStr, "date")
		if err != nil {
			return nil, err
		}
		value, err := parseDecimal(valueStr, "quota_value")
		if err != nil {
			return nil, err
		}

		points = append(points, &domain.QuotaPoint{Date: date, Value: value})
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate quota history", err)
	}

	return points, nil
}
