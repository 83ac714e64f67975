package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CashTicker identifies the distinguished position holding the fund's free cash
const CashTicker = "CASH"

// Category represents the asset class of a position
type Category string

const (
	CategoryCash   Category = "Cash"
	CategoryEquity Category = "Equity"
)

// AssetPosition represents a holding in the fund portfolio.
// The CASH position always exists: its quantity is the free cash balance and
// its price is pinned at 1.
type AssetPosition struct {
	Ticker       string
	Quantity     decimal.Decimal
	AverageCost  decimal.Decimal // Zero when Quantity is zero
	CurrentPrice decimal.Decimal
	StopLoss     decimal.Decimal
	Category     Category
	PricedAt     time.Time // When CurrentPrice was last set by a trade or a price mark
}

// NewCashPosition returns the seed row for the CASH position
func NewCashPosition() *AssetPosition {
	return &AssetPosition{
		Ticker:       CashTicker,
		Quantity:     decimal.Zero,
		AverageCost:  decimal.NewFromInt(1),
		CurrentPrice: decimal.NewFromInt(1),
		StopLoss:     decimal.Zero,
		Category:     CategoryCash,
	}
}

// NormalizeTicker upper-cases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// IsCash reports whether p is the CASH position
func (p *AssetPosition) IsCash() bool {
	return p.Ticker == CashTicker
}

// MarketValue returns quantity × current price
func (p *AssetPosition) MarketValue() decimal.Decimal {
	return p.Quantity.Mul(p.CurrentPrice)
}

// Validate ensures the position adheres to domain rules
func (p *AssetPosition) Validate() error {
	if p.Ticker == "" {
		return fmt.Errorf("%w: ticker cannot be empty", ErrInvalidInput)
	}

	if p.IsCash() {
		// CASH price is pinned at 1
		if !p.CurrentPrice.Equal(decimal.NewFromInt(1)) {
			return errors.Join(ErrInvalidPosition, errors.New("CASH price must be 1"))
		}
		return nil
	}

	// Non-cash holdings can never go negative
	if p.Quantity.IsNegative() {
		return fmt.Errorf("%w: quantity of %s cannot be negative", ErrInvalidPosition, p.Ticker)
	}

	if p.CurrentPrice.IsNegative() || p.AverageCost.IsNegative() {
		return fmt.Errorf("%w: prices of %s cannot be negative", ErrInvalidPosition, p.Ticker)
	}

	return nil
}
