package marking

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fundquota-backend/internal/domain"
	"github.com/simaogato/fundquota-backend/internal/domain/mocks"
	"github.com/simaogato/fundquota-backend/internal/usecase/valuation"
)

var fixedNow = time.Date(2024, 4, 2, 17, 30, 0, 0, time.UTC)

func newTestService(store *mocks.MockStore) *MarkingService {
	service := NewMarkingService(store, valuation.NewValuationService(store, true))
	service.Now = func() time.Time { return fixedNow }
	return service
}

func TestPendingPrices(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	store.PositionRepo.On("List", ctx).Return([]*domain.AssetPosition{
		domain.NewCashPosition(),
		{Ticker: "PETR4", Quantity: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(30)},
		{Ticker: "ZERO3", Quantity: decimal.Zero, CurrentPrice: decimal.NewFromInt(5)},
	}, nil)

	pending, err := service.PendingPrices(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "PETR4", pending[0].Ticker)
}

func TestMark_UpdatesPricesAndIssuesToken(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	petr := &domain.AssetPosition{Ticker: "PETR4", Quantity: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(30)}
	store.PositionRepo.On("GetByTicker", ctx, "PETR4").Return(petr, nil)
	store.PositionRepo.On("Update", ctx, mock.MatchedBy(func(p *domain.AssetPosition) bool {
		return p.Ticker == "PETR4" && p.CurrentPrice.Equal(decimal.NewFromInt(36)) && p.PricedAt.Equal(fixedNow)
	})).Return(nil)
	store.PriceMarkRepo.On("Create", ctx, mock.MatchedBy(func(m *domain.PriceMark) bool {
		return m.MarkedAt.Equal(fixedNow)
	})).Return(nil)
	store.PositionRepo.On("List", ctx).Return([]*domain.AssetPosition{
		{Ticker: domain.CashTicker, Quantity: decimal.NewFromInt(700), CurrentPrice: decimal.NewFromInt(1)},
		{Ticker: "PETR4", Quantity: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(36)},
	}, nil)
	store.MovementRepo.On("List", ctx).Return([]*domain.Movement{{
		InvestorName: "Alice",
		Kind:         domain.MovementKindContribution,
		ShareDelta:   decimal.NewFromInt(1000),
		QuotaAtTime:  decimal.NewFromInt(1),
	}}, nil)
	store.QuotaHistoryRepo.On("Upsert", ctx, mock.MatchedBy(func(p *domain.QuotaPoint) bool {
		return domain.FormatDate(p.Date) == "2024-04-02"
	})).Return(nil)

	result, err := service.Mark(ctx, map[string]decimal.Decimal{"petr4": decimal.NewFromInt(36)})

	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", result.Mark.ID.String())
	assert.Len(t, result.Updated, 1)
	assert.True(t, result.Quota.Value.Equal(decimal.RequireFromString("1.06")), "got %s", result.Quota.Value)
	store.AssertExpectations(t)
}

func TestMark_Failures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		prices  map[string]decimal.Decimal
		wantErr error
	}{
		{
			name:    "Non-positive price",
			prices:  map[string]decimal.Decimal{"PETR4": decimal.Zero},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "Cash cannot be marked",
			prices:  map[string]decimal.Decimal{"CASH": decimal.NewFromInt(2)},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "Ticker not held",
			prices:  map[string]decimal.Decimal{"ITUB4": decimal.NewFromInt(30)},
			wantErr: domain.ErrNoSuchPosition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockStore()
			service := newTestService(store)
			store.PositionRepo.On("GetByTicker", ctx, "ITUB4").Return(nil, domain.ErrNotFound).Maybe()

			_, err := service.Mark(ctx, tt.prices)
			assert.ErrorIs(t, err, tt.wantErr)
			store.PriceMarkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			store.PositionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}
