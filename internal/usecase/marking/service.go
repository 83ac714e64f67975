package marking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fundquota-backend/internal/domain"
	"github.com/simaogato/fundquota-backend/internal/usecase/valuation"
)

// MarkResult reports a completed mark-to-market run
type MarkResult struct {
	Mark    *domain.PriceMark
	Updated []*domain.AssetPosition
	Quota   *domain.QuotaPoint
}

// MarkingService refreshes the prices of held assets and issues price marks
type MarkingService struct {
	Store     domain.LedgerStore
	Valuation *valuation.ValuationService
	Now       func() time.Time
}

// NewMarkingService creates a new MarkingService instance
func NewMarkingService(store domain.LedgerStore, valuationService *valuation.ValuationService) *MarkingService {
	return &MarkingService{
		Store:     store,
		Valuation: valuationService,
		Now:       time.Now,
	}
}

// PendingPrices lists the held non-cash positions whose prices a mark must refresh
func (s *MarkingService) PendingPrices(ctx context.Context) ([]*domain.AssetPosition, error) {
	positions, err := s.Store.Positions().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	pending := make([]*domain.AssetPosition, 0, len(positions))
	for _, p := range positions {
		if !p.IsCash() && p.Quantity.IsPositive() {
			pending = append(pending, p)
		}
	}

	return pending, nil
}

// Mark sets the current price of every given ticker, records a price mark and
// registers today's quota
// Logic:
//  1. Every price must be positive and no ticker may be CASH
//  2. Every ticker must be held (ErrNoSuchPosition otherwise)
//  3. Update current price and priced-at, insert the mark, register the quota
//
// Step 2 and 3 run in one transaction.
func (s *MarkingService) Mark(ctx context.Context, prices map[string]decimal.Decimal) (*MarkResult, error) {
	normalized := make(map[string]decimal.Decimal, len(prices))
	for ticker, price := range prices {
		t := domain.NormalizeTicker(ticker)
		if t == "" || t == domain.CashTicker {
			return nil, fmt.Errorf("%w: cannot mark ticker %q", domain.ErrInvalidInput, ticker)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("%w: price of %s must be positive", domain.ErrInvalidAmount, t)
		}
		normalized[t] = price
	}

	tickers := make([]string, 0, len(normalized))
	for t := range normalized {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	now := s.Now()
	result := &MarkResult{
		Mark: &domain.PriceMark{ID: uuid.New(), MarkedAt: now},
	}

	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		for _, ticker := range tickers {
			position, err := repos.Positions().GetByTicker(ctx, ticker)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("%w: %s", domain.ErrNoSuchPosition, ticker)
				}
				return fmt.Errorf("failed to get position %s: %w", ticker, err)
			}

			position.CurrentPrice = normalized[ticker]
			position.PricedAt = now
			if err := repos.Positions().Update(ctx, position); err != nil {
				return err
			}
			result.Updated = append(result.Updated, position)
		}

		if err := repos.PriceMarks().Create(ctx, result.Mark); err != nil {
			return err
		}

		point, err := s.Valuation.Bind(repos).RecordQuotaHistory(ctx, now)
		if err != nil {
			return err
		}
		result.Quota = point
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Stringer("mark", result.Mark.ID).
		Int("tickers", len(tickers)).
		Stringer("quota", result.Quota.Value).
		Msg("prices marked to market")

	return result, nil
}
