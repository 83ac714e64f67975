package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fundquota-backend/internal/domain"
	"github.com/simaogato/fundquota-backend/internal/domain/mocks"
	"github.com/simaogato/fundquota-backend/internal/usecase/valuation"
)

func newTestService(store *mocks.MockStore) *DashboardService {
	return NewDashboardService(store, valuation.NewValuationService(store, true))
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	cash := domain.NewCashPosition()
	cash.Quantity = decimal.NewFromInt(200)

	store.PositionRepo.On("List", ctx).Return([]*domain.AssetPosition{
		cash,
		{Ticker: "VALE3", Quantity: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(100)},
	}, nil)
	store.PositionRepo.On("GetByTicker", ctx, domain.CashTicker).Return(cash, nil)
	store.MovementRepo.On("List", ctx).Return([]*domain.Movement{{
		ID:           1,
		Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		InvestorName: "Alice",
		Kind:         domain.MovementKindContribution,
		CashAmount:   decimal.NewFromInt(1000),
		QuotaAtTime:  decimal.NewFromInt(1),
		ShareDelta:   decimal.NewFromInt(1000),
	}}, nil)

	summary, err := service.Summary(ctx)

	require.NoError(t, err)
	assert.True(t, summary.NetAssetValue.Equal(decimal.NewFromInt(1200)))
	assert.True(t, summary.Quota.Equal(decimal.RequireFromString("1.2")))
	assert.True(t, summary.FreeCash.Equal(decimal.NewFromInt(200)))
	assert.True(t, summary.TotalShares.Equal(decimal.NewFromInt(1000)))
	require.Len(t, summary.Investors, 1)
	assert.True(t, summary.Investors[0].ReturnPct.Equal(decimal.NewFromInt(20)))
	store.AssertExpectations(t)
}

func TestSummary_EmptyLedger(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	store.PositionRepo.On("List", ctx).Return([]*domain.AssetPosition{}, nil)
	store.PositionRepo.On("GetByTicker", ctx, domain.CashTicker).Return(nil, domain.ErrNotFound)
	store.MovementRepo.On("List", ctx).Return([]*domain.Movement{}, nil)

	summary, err := service.Summary(ctx)

	require.NoError(t, err)
	assert.True(t, summary.NetAssetValue.IsZero())
	assert.True(t, summary.Quota.Equal(domain.BootstrapQuota))
	assert.True(t, summary.FreeCash.IsZero())
	assert.Empty(t, summary.Investors)
}

func TestRecentMovements_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	store.MovementRepo.On("Recent", ctx, DefaultRecentLimit).Return([]*domain.Movement{}, nil)
	store.MovementRepo.On("Recent", ctx, 5).Return([]*domain.Movement{{ID: 9}}, nil)

	_, err := service.RecentMovements(ctx, 0)
	require.NoError(t, err)

	movements, err := service.RecentMovements(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(9), movements[0].ID)
	store.AssertExpectations(t)
}

func TestPositions_IncludeMarketValue(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	store.PositionRepo.On("List", ctx).Return([]*domain.AssetPosition{
		{Ticker: "VALE3", Quantity: decimal.NewFromInt(3), CurrentPrice: decimal.RequireFromString("70.5")},
	}, nil)

	views, err := service.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].MarketValue.Equal(decimal.RequireFromString("211.5")))
	assert.Equal(t, "VALE3", views[0].Ticker)
}

func TestQuotaSeries(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	points := []*domain.QuotaPoint{{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: decimal.NewFromInt(1)}}
	store.QuotaHistoryRepo.On("List", ctx).Return(points, nil)

	got, err := service.QuotaSeries(ctx)
	require.NoError(t, err)
	assert.Equal(t, points, got)
}
