package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAssetPosition_Validate(t *testing.T) {
	tests := []struct {
		name     string
		position AssetPosition
		wantErr  error
	}{
		{
			name:     "Seeded cash position should pass",
			position: *NewCashPosition(),
		},
		{
			name: "Cash with negative balance should pass",
			position: AssetPosition{
				Ticker:       CashTicker,
				Quantity:     decimal.NewFromInt(-10),
				CurrentPrice: decimal.NewFromInt(1),
				Category:     CategoryCash,
			},
		},
		{
			name: "Cash priced away from 1 should fail",
			position: AssetPosition{
				Ticker:       CashTicker,
				CurrentPrice: decimal.NewFromInt(2),
				Category:     CategoryCash,
			},
			wantErr: ErrInvalidPosition,
		},
		{
			name: "Equity position should pass",
			position: AssetPosition{
				Ticker:       "PETR4",
				Quantity:     decimal.NewFromInt(10),
				AverageCost:  decimal.NewFromInt(30),
				CurrentPrice: decimal.NewFromInt(32),
				Category:     CategoryEquity,
			},
		},
		{
			name: "Negative equity quantity should fail",
			position: AssetPosition{
				Ticker:       "PETR4",
				Quantity:     decimal.NewFromInt(-1),
				CurrentPrice: decimal.NewFromInt(32),
			},
			wantErr: ErrInvalidPosition,
		},
		{
			name:     "Empty ticker should fail",
			position: AssetPosition{},
			wantErr:  ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.position.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNetAssetValueAndQuota(t *testing.T) {
	positions := []*AssetPosition{
		{Ticker: CashTicker, Quantity: decimal.NewFromInt(500), CurrentPrice: decimal.NewFromInt(1)},
		{Ticker: "VALE3", Quantity: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(70)},
	}

	nav := NetAssetValue(positions)
	assert.True(t, nav.Equal(decimal.NewFromInt(1200)))

	assert.True(t, Quota(nav, decimal.NewFromInt(1000)).Equal(decimal.RequireFromString("1.2")))
	assert.True(t, Quota(nav, decimal.Zero).Equal(BootstrapQuota))
	assert.True(t, Quota(nav, decimal.NewFromInt(-3)).Equal(BootstrapQuota))
	assert.True(t, NetAssetValue(nil).IsZero())
}

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "PETR4", NormalizeTicker(" petr4 "))
}
