package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fundquota-backend/internal/domain"
)

// ValuationService computes fund-level figures (NAV, shares, quota)
// and registers the daily quota history.
type ValuationService struct {
	Store domain.LedgerStore

	// StrictReads propagates read failures. When false a failed read is
	// logged and degraded to zero.
	StrictReads bool

	Now func() time.Time
}

// NewValuationService creates a new ValuationService instance
func NewValuationService(store domain.LedgerStore, strictReads bool) *ValuationService {
	return &ValuationService{
		Store:       store,
		StrictReads: strictReads,
		Now:         time.Now,
	}
}

// Bind returns a Valuer reading through repos, typically the repositories
// of an open transaction.
func (s *ValuationService) Bind(repos domain.Repositories) *Valuer {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	return &Valuer{repos: repos, strict: s.StrictReads, now: now}
}

// NetAssetValue returns the sum of quantity × current price over all positions
func (s *ValuationService) NetAssetValue(ctx context.Context) (decimal.Decimal, error) {
	return s.Bind(s.Store).NetAssetValue(ctx)
}

// TotalSharesOutstanding returns the sum of all movement share deltas
func (s *ValuationService) TotalSharesOutstanding(ctx context.Context) (decimal.Decimal, error) {
	return s.Bind(s.Store).TotalSharesOutstanding(ctx)
}

// CurrentQuota returns NAV per share, or the bootstrap quota while no shares exist
func (s *ValuationService) CurrentQuota(ctx context.Context) (decimal.Decimal, error) {
	return s.Bind(s.Store).CurrentQuota(ctx)
}

// RecordQuotaHistory registers the current quota for date (today when zero)
func (s *ValuationService) RecordQuotaHistory(ctx context.Context, date time.Time) (*domain.QuotaPoint, error) {
	var point *domain.QuotaPoint
	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		point, err = s.Bind(repos).RecordQuotaHistory(ctx, date)
		return err
	})
	if err != nil {
		return nil, err
	}
	return point, nil
}

// Valuer evaluates the fund against one repository scope
type Valuer struct {
	repos  domain.Repositories
	strict bool
	now    func() time.Time
}

// NetAssetValue returns the sum of quantity × current price over all positions
func (v *Valuer) NetAssetValue(ctx context.Context) (decimal.Decimal, error) {
	positions, err := v.repos.Positions().List(ctx)
	if err != nil {
		return v.degrade("net asset value", err)
	}
	return domain.NetAssetValue(positions), nil
}

// TotalSharesOutstanding returns the sum of all movement share deltas
func (v *Valuer) TotalSharesOutstanding(ctx context.Context) (decimal.Decimal, error) {
	movements, err := v.repos.Movements().List(ctx)
	if err != nil {
		return v.degrade("total shares", err)
	}
	return domain.TotalShares(movements), nil
}

// CurrentQuota returns NAV per share, or the bootstrap quota while no shares exist
func (v *Valuer) CurrentQuota(ctx context.Context) (decimal.Decimal, error) {
	nav, err := v.NetAssetValue(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	shares, err := v.TotalSharesOutstanding(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	return domain.Quota(nav, shares), nil
}

// RecordQuotaHistory computes the current quota and upserts it for date.
// A zero date means today.
func (v *Valuer) RecordQuotaHistory(ctx context.Context, date time.Time) (*domain.QuotaPoint, error) {
	if date.IsZero() {
		date = v.now()
	}

	quota, err := v.CurrentQuota(ctx)
	if err != nil {
		return nil, err
	}

	point := &domain.QuotaPoint{
		Date:  domain.DateOf(date),
		Value: quota,
	}

	if err := v.repos.QuotaHistory().Upsert(ctx, point); err != nil {
		return nil, fmt.Errorf("failed to record quota history: %w", err)
	}

	log.Debug().
		Str("date", domain.FormatDate(point.Date)).
		Stringer("quota", point.Value).
		Msg("quota history recorded")

	return point, nil
}

func (v *Valuer) degrade(what string, err error) (decimal.Decimal, error) {
	if v.strict {
		return decimal.Zero, fmt.Errorf("failed to compute %s: %w", what, err)
	}

	log.Warn().Err(err).Str("figure", what).Msg("ledger read failed, using zero")
	return decimal.Zero, nil
}
