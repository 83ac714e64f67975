package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/fundquota-backend/internal/domain"
	"github.com/simaogato/fundquota-backend/internal/usecase/investor"
	"github.com/simaogato/fundquota-backend/internal/usecase/valuation"
)

// DefaultRecentLimit is the number of movements returned when no limit is given
const DefaultRecentLimit = 20

// SummaryResult represents the headline figures of the fund
type SummaryResult struct {
	NetAssetValue decimal.Decimal
	Quota         decimal.Decimal
	FreeCash      decimal.Decimal
	TotalShares   decimal.Decimal
	Investors     []investor.Row
}

// PositionView is an asset position together with its market value
type PositionView struct {
	domain.AssetPosition
	MarketValue decimal.Decimal
}

// DashboardService handles dashboard-related operations
type DashboardService struct {
	Store     domain.LedgerStore
	Valuation *valuation.ValuationService
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(store domain.LedgerStore, valuationService *valuation.ValuationService) *DashboardService {
	return &DashboardService{
		Store:     store,
		Valuation: valuationService,
	}
}

// Summary calculates the fund summary
// Logic:
//   - NAV: Σ quantity × current price over all positions
//   - Quota: NAV / total shares (bootstrap 1 while no shares exist)
//   - Free cash: quantity of the CASH position
//   - Investors: replayed positions holding more than dust
func (s *DashboardService) Summary(ctx context.Context) (*SummaryResult, error) {
	valuer := s.Valuation.Bind(s.Store)

	nav, err := valuer.NetAssetValue(ctx)
	if err != nil {
		return nil, err
	}

	shares, err := valuer.TotalSharesOutstanding(ctx)
	if err != nil {
		return nil, err
	}

	quota := domain.Quota(nav, shares)

	freeCash := decimal.Zero
	cash, err := s.Store.Positions().GetByTicker(ctx, domain.CashTicker)
	switch {
	case err == nil:
		freeCash = cash.Quantity
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to get cash position: %w", err)
	}

	movements, err := s.Store.Movements().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	return &SummaryResult{
		NetAssetValue: nav,
		Quota:         quota,
		FreeCash:      freeCash,
		TotalShares:   shares,
		Investors:     investor.BuildReport(movements, quota),
	}, nil
}

// QuotaSeries returns every registered quota point ordered by date
func (s *DashboardService) QuotaSeries(ctx context.Context) ([]*domain.QuotaPoint, error) {
	points, err := s.Store.QuotaHistory().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quota history: %w", err)
	}
	return points, nil
}

// RecentMovements returns the latest movements, newest first
// A non-positive limit uses DefaultRecentLimit.
func (s *DashboardService) RecentMovements(ctx context.Context, limit int) ([]*domain.Movement, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	movements, err := s.Store.Movements().Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent movements: %w", err)
	}
	return movements, nil
}

// Positions returns every asset position with its market value
func (s *DashboardService) Positions(ctx context.Context) ([]PositionView, error) {
	positions, err := s.Store.Positions().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	views := make([]PositionView, 0, len(positions))
	for _, p := range positions {
		views = append(views, PositionView{
			AssetPosition: *p,
			MarketValue:   p.MarketValue(),
		})
	}
	return views, nil
}
