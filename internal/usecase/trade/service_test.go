package trade

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

var (
	tradeDate = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	fixedNow  = time.Date(2024, 2, 1, 11, 0, 0, 0, time.UTC)
)

func newTestService(store *mocks.MockStore) *TradeService {
	service := NewTradeService(store, valuation.NewValuationService(store, true))
	service.Now = func() time.Time { return fixedNow }
	return service
}

func cashPosition(amount int64) *domain.AssetPosition {
	p := domain.NewCashPosition()
	p.Quantity = decimal.NewFromInt(amount)
	return p
}

func isCashWith(amount int64) interface{} {
	return mock.MatchedBy(func(p *domain.AssetPosition) bool {
		return p.Ticker == domain.CashTicker && p.Quantity.Equal(decimal.NewFromInt(amount))
	})
}

// expectQuotaRegistration stubs the reads behind RecordQuotaHistory
func expectQuotaRegistration(ctx context.Context, store *mocks.MockStore, positions []*domain.AssetPosition) {
	store.PositionRepo.On("List", ctx).Return(positions, nil)
	store.MovementRepo.On("List", ctx).Return([]*domain.Movement{{
		InvestorName: "Alice",
		Kind:         domain.MovementKindContribution,
		ShareDelta:   decimal.NewFromInt(1000),
		QuotaAtTime:  decimal.NewFromInt(1),
	}}, nil)
	store.QuotaHistoryRepo.On("Upsert", ctx, mock.MatchedBy(func(p *domain.QuotaPoint) bool {
		return p.Date.Equal(tradeDate)
	})).Return(nil)
}

func TestBuy_NewPosition(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	store.PositionRepo.On("GetByTicker", ctx, domain.CashTicker).Return(cashPosition(1000), nil)
	store.PositionRepo.On("GetByTicker", ctx, "PETR4").Return(nil, domain.ErrNotFound)
	store.PositionRepo.On("Create", ctx, mock.MatchedBy(func(p *domain.AssetPosition) bool {
		return p.Ticker == "PETR4" &&
			p.Quantity.Equal(decimal.NewFromInt(10)) &&
			p.AverageCost.Equal(decimal.NewFromInt(30)) &&
			p.CurrentPrice.Equal(decimal.NewFromInt(30)) &&
			p.Category == domain.CategoryEquity &&
			p.PricedAt.Equal(fixedNow)
	})).Return(nil)
	store.PositionRepo.On("Update", ctx, isCashWith(700)).Return(nil)
	expectQuotaRegistration(ctx, store, []*domain.AssetPosition{
		cashPosition(700),
		{Ticker: "PETR4", Quantity: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(30)},
	})

	result, err := service.Buy(ctx, TradeInput{
		Date:     tradeDate,
		Ticker:   "petr4",
		Quantity: decimal.NewFromInt(10),
		Price:    decimal.NewFromInt(30),
	})

	require.NoError(t, err)
	assert.True(t, result.Cash.Equal(decimal.NewFromInt(700)))
	// Buying at market keeps NAV, so the quota stays put
	assert.True(t, result.Quota.Value.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 1, store.TxCount)
	store.AssertExpectations(t)
}

func TestBuy_ExistingPositionAveragesCost(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	existing := &domain.AssetPosition{
		Ticker:       "VALE3",
		Quantity:     decimal.NewFromInt(10),
		AverageCost:  decimal.NewFromInt(20),
		CurrentPrice: decimal.NewFromInt(25),
		Category:     domain.CategoryEquity,
	}

	store.PositionRepo.On("GetByTicker", ctx, domain.CashTicker).Return(cashPosition(1000), nil)
	store.PositionRepo.On("GetByTicker", ctx, "VALE3").Return(existing, nil)
	store.PositionRepo.On("Update", ctx, mock.MatchedBy(func(p *domain.AssetPosition) bool {
		return p.Ticker == "VALE3" &&
			p.Quantity.Equal(decimal.NewFromInt(20)) &&
			p.AverageCost.Equal(decimal.NewFromInt(25)) &&
			p.CurrentPrice.Equal(decimal.NewFromInt(30))
	})).Return(nil)
	store.PositionRepo.On("Update", ctx, isCashWith(700)).Return(nil)
	expectQuotaRegistration(ctx, store, []*domain.AssetPosition{cashPosition(700)})

	result, err := service.Buy(ctx, TradeInput{
		Date:     tradeDate,
		Ticker:   "VALE3",
		Quantity: decimal.NewFromInt(10),
		Price:    decimal.NewFromInt(30),
	})

	require.NoError(t, err)
	assert.True(t, result.Position.AverageCost.Equal(decimal.NewFromInt(25)))
	store.AssertExpectations(t)
}

func TestBuy_InsufficientCashChangesNothing(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	store.PositionRepo.On("GetByTicker", ctx, domain.CashTicker).Return(cashPosition(100), nil)

	_, err := service.Buy(ctx, TradeInput{
		Date:     tradeDate,
		Ticker:   "PETR4",
		Quantity: decimal.NewFromInt(10),
		Price:    decimal.NewFromInt(30),
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientCash)
	store.PositionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	store.PositionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	store.QuotaHistoryRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestBuy_CorruptedPositionRejected(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	store.PositionRepo.On("GetByTicker", ctx, domain.CashTicker).Return(cashPosition(1000), nil)
	store.PositionRepo.On("GetByTicker", ctx, "BAD3").Return(&domain.AssetPosition{
		Ticker:   "BAD3",
		Quantity: decimal.NewFromInt(-5),
	}, nil)

	_, err := service.Buy(ctx, TradeInput{
		Date:     tradeDate,
		Ticker:   "BAD3",
		Quantity: decimal.NewFromInt(5),
		Price:    decimal.NewFromInt(1),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
	store.PositionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestTrade_InputValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   TradeInput
		wantErr error
	}{
		{
			name:    "Cash ticker cannot be traded",
			input:   TradeInput{Ticker: "cash", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "Empty ticker",
			input:   TradeInput{Ticker: " ", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "Zero quantity",
			input:   TradeInput{Ticker: "PETR4", Quantity: decimal.Zero, Price: decimal.NewFromInt(1)},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "Negative price",
			input:   TradeInput{Ticker: "PETR4", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(-1)},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockStore()
			service := newTestService(store)

			_, err := service.Buy(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = service.Sell(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)

			assert.Zero(t, store.TxCount)
		})
	}
}

func TestSell_PartialKeepsAverageCost(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	store.PositionRepo.On("GetByTicker", ctx, "VALE3").Return(&domain.AssetPosition{
		Ticker:       "VALE3",
		Quantity:     decimal.NewFromInt(10),
		AverageCost:  decimal.NewFromInt(20),
		CurrentPrice: decimal.NewFromInt(25),
	}, nil)
	store.PositionRepo.On("GetByTicker", ctx, domain.CashTicker).Return(cashPosition(100), nil)
	store.PositionRepo.On("Update", ctx, isCashWith(200)).Return(nil)
	store.PositionRepo.On("Update", ctx, mock.MatchedBy(func(p *domain.AssetPosition) bool {
		return p.Ticker == "VALE3" &&
			p.Quantity.Equal(decimal.NewFromInt(6)) &&
			p.AverageCost.Equal(decimal.NewFromInt(20))
	})).Return(nil)
	expectQuotaRegistration(ctx, store, []*domain.AssetPosition{cashPosition(200)})

	result, err := service.Sell(ctx, TradeInput{
		Date:     tradeDate,
		Ticker:   "VALE3",
		Quantity: decimal.NewFromInt(4),
		Price:    decimal.NewFromInt(25),
	})

	require.NoError(t, err)
	require.NotNil(t, result.Position)
	assert.True(t, result.Cash.Equal(decimal.NewFromInt(200)))
	store.PositionRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestSell_ExhaustiveDeletesPosition(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	store.PositionRepo.On("GetByTicker", ctx, "VALE3").Return(&domain.AssetPosition{
		Ticker:   "VALE3",
		Quantity: decimal.NewFromInt(10),
	}, nil)
	store.PositionRepo.On("GetByTicker", ctx, domain.CashTicker).Return(cashPosition(0), nil)
	store.PositionRepo.On("Update", ctx, isCashWith(250)).Return(nil)
	store.PositionRepo.On("Delete", ctx, "VALE3").Return(nil)
	expectQuotaRegistration(ctx, store, []*domain.AssetPosition{cashPosition(250)})

	result, err := service.Sell(ctx, TradeInput{
		Date:     tradeDate,
		Ticker:   "VALE3",
		Quantity: decimal.NewFromInt(10),
		Price:    decimal.NewFromInt(25),
	})

	require.NoError(t, err)
	assert.Nil(t, result.Position)
	store.AssertExpectations(t)
}

func TestSell_Failures(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	store.PositionRepo.On("GetByTicker", ctx, domain.CashTicker).Return(cashPosition(0), nil)
	store.PositionRepo.On("GetByTicker", ctx, "ITUB4").Return(nil, domain.ErrNotFound)
	store.PositionRepo.On("GetByTicker", ctx, "VALE3").Return(&domain.AssetPosition{
		Ticker:   "VALE3",
		Quantity: decimal.NewFromInt(3),
	}, nil)

	_, err := service.Sell(ctx, TradeInput{Date: tradeDate, Ticker: "ITUB4", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrNoSuchPosition)

	_, err = service.Sell(ctx, TradeInput{Date: tradeDate, Ticker: "VALE3", Quantity: decimal.NewFromInt(4), Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	store.PositionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	store.PositionRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSell_ReadsCashBeforePosition(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockStore()
	service := newTestService(store)

	store.PositionRepo.On("GetByTicker", ctx, domain.CashTicker).Return(cashPosition(0), nil)
	store.PositionRepo.On("GetByTicker", ctx, "VALE3").Return(&domain.AssetPosition{
		Ticker:   "VALE3",
		Quantity: decimal.NewFromInt(1),
	}, nil)

	_, err := service.Sell(ctx, TradeInput{Date: tradeDate, Ticker: "VALE3", Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	// Buy and Sell lock CASH before the traded ticker
	require.Len(t, store.PositionRepo.Calls, 2)
	assert.Equal(t, domain.CashTicker, store.PositionRepo.Calls[0].Arguments.String(1))
	assert.Equal(t, "VALE3", store.PositionRepo.Calls[1].Arguments.String(1))
}
