package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fundquota-backend/internal/domain"
	"github.com/simaogato/fundquota-backend/internal/usecase/valuation"
)

// TradeInput represents the input for a buy or sell order
type TradeInput struct {
	Date     time.Time
	Ticker   string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// TradeResult reports the state left by an executed order
type TradeResult struct {
	Position *domain.AssetPosition // Nil when a sell closed the position
	Cash     decimal.Decimal
	Quota    *domain.QuotaPoint
}

// TradeService executes buy and sell orders against the portfolio
type TradeService struct {
	Store     domain.LedgerStore
	Valuation *valuation.ValuationService
	Now       func() time.Time
}

// NewTradeService creates a new TradeService instance
func NewTradeService(store domain.LedgerStore, valuationService *valuation.ValuationService) *TradeService {
	return &TradeService{
		Store:     store,
		Valuation: valuationService,
		Now:       time.Now,
	}
}

func (s *TradeService) validate(input *TradeInput) error {
	input.Ticker = domain.NormalizeTicker(input.Ticker)
	if input.Ticker == "" {
		return fmt.Errorf("%w: ticker cannot be empty", domain.ErrInvalidInput)
	}
	if input.Ticker == domain.CashTicker {
		return fmt.Errorf("%w: %s cannot be traded", domain.ErrInvalidInput, domain.CashTicker)
	}
	if !input.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidAmount)
	}
	if !input.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", domain.ErrInvalidAmount)
	}
	if input.Date.IsZero() {
		input.Date = s.Now()
	}
	return nil
}

// Buy purchases quantity units of ticker at price using free cash
// Logic:
//  1. total = quantity × price; fail with ErrInsufficientCash if total > cash
//  2. Debit CASH by total
//  3. Existing position: avg = (old_qty*old_avg + total) / (old_qty + qty), current price = price
//     New position: avg = current price = price, category Equity
//  4. Register the quota history for the trade date
//
// All writes happen in one transaction.
func (s *TradeService) Buy(ctx context.Context, input TradeInput) (*TradeResult, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	total := input.Quantity.Mul(input.Price)
	now := s.Now()
	result := &TradeResult{}

	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		cash, err := repos.Positions().GetByTicker(ctx, domain.CashTicker)
		if err != nil {
			return fmt.Errorf("failed to get cash position: %w", err)
		}

		if total.GreaterThan(cash.Quantity) {
			return fmt.Errorf("%w: order total %s exceeds free cash %s", domain.ErrInsufficientCash, total, cash.Quantity)
		}

		position, err := repos.Positions().GetByTicker(ctx, input.Ticker)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			position = &domain.AssetPosition{
				Ticker:       input.Ticker,
				Quantity:     input.Quantity,
				AverageCost:  input.Price,
				CurrentPrice: input.Price,
				StopLoss:     decimal.Zero,
				Category:     domain.CategoryEquity,
				PricedAt:     now,
			}
			if err := repos.Positions().Create(ctx, position); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("failed to get position %s: %w", input.Ticker, err)
		default:
			newQty := position.Quantity.Add(input.Quantity)
			if !newQty.IsPositive() {
				return fmt.Errorf("%w: %s would hold %s units", domain.ErrInvalidPosition, input.Ticker, newQty)
			}
			held := position.Quantity.Mul(position.AverageCost)
			position.AverageCost = held.Add(total).Div(newQty)
			position.Quantity = newQty
			position.CurrentPrice = input.Price
			position.PricedAt = now
			if err := repos.Positions().Update(ctx, position); err != nil {
				return err
			}
		}

		cash.Quantity = cash.Quantity.Sub(total)
		if err := repos.Positions().Update(ctx, cash); err != nil {
			return err
		}

		point, err := s.Valuation.Bind(repos).RecordQuotaHistory(ctx, input.Date)
		if err != nil {
			return err
		}

		result.Position = position
		result.Cash = cash.Quantity
		result.Quota = point
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("ticker", input.Ticker).
		Stringer("quantity", input.Quantity).
		Stringer("price", input.Price).
		Msg("buy executed")

	return result, nil
}

// Sell disposes of quantity units of ticker at price
// Logic:
//  1. Fail with ErrNoSuchPosition if the ticker is not held, ErrInsufficientQuantity if quantity > held
//  2. Credit CASH by quantity × price
//  3. Reduce the quantity; delete the position when it reaches exactly zero
//  4. Register the quota history for the trade date
//
// The average cost of the remaining units is unchanged.
func (s *TradeService) Sell(ctx context.Context, input TradeInput) (*TradeResult, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	total := input.Quantity.Mul(input.Price)
	result := &TradeResult{}

	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		// CASH is always read first so row locks are taken in the same order as Buy
		cash, err := repos.Positions().GetByTicker(ctx, domain.CashTicker)
		if err != nil {
			return fmt.Errorf("failed to get cash position: %w", err)
		}

		position, err := repos.Positions().GetByTicker(ctx, input.Ticker)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrNoSuchPosition, input.Ticker)
			}
			return fmt.Errorf("failed to get position %s: %w", input.Ticker, err)
		}

		if input.Quantity.GreaterThan(position.Quantity) {
			return fmt.Errorf("%w: selling %s of %s but holding %s",
				domain.ErrInsufficientQuantity, input.Quantity, input.Ticker, position.Quantity)
		}

		cash.Quantity = cash.Quantity.Add(total)
		if err := repos.Positions().Update(ctx, cash); err != nil {
			return err
		}

		position.Quantity = position.Quantity.Sub(input.Quantity)
		if position.Quantity.IsZero() {
			if err := repos.Positions().Delete(ctx, input.Ticker); err != nil {
				return err
			}
			position = nil
		} else if err := repos.Positions().Update(ctx, position); err != nil {
			return err
		}

		point, err := s.Valuation.Bind(repos).RecordQuotaHistory(ctx, input.Date)
		if err != nil {
			return err
		}

		result.Position = position
		result.Cash = cash.Quantity
		result.Quota = point
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("ticker", input.Ticker).
		Stringer("quantity", input.Quantity).
		Stringer("price", input.Price).
		Msg("sell executed")

	return result, nil
}
