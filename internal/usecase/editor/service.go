package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fundquota-backend/internal/domain"
)

// PositionPatch lists the position columns to correct.
// Nil fields keep their stored value.
type PositionPatch struct {
	Ticker       string
	Quantity     *decimal.Decimal
	AverageCost  *decimal.Decimal
	CurrentPrice *decimal.Decimal
	StopLoss     *decimal.Decimal
	Category     *domain.Category
}

// EditorService performs raw corrections of ledger rows.
// Edits never recompute derived data such as the CASH balance or quota history.
type EditorService struct {
	Store domain.LedgerStore
	Now   func() time.Time
}

// NewEditorService creates a new EditorService instance
func NewEditorService(store domain.LedgerStore) *EditorService {
	return &EditorService{Store: store, Now: time.Now}
}

// UpdateMovement overwrites a movement row
func (s *EditorService) UpdateMovement(ctx context.Context, m *domain.Movement) error {
	if m.ID <= 0 {
		return fmt.Errorf("%w: movement id must be positive", domain.ErrInvalidInput)
	}

	m.TickerRef = domain.NormalizeTicker(m.TickerRef)
	if m.TickerRef == "" {
		m.TickerRef = domain.CashTicker
	}

	if err := m.Validate(); err != nil {
		return err
	}

	if err := s.Store.Movements().Update(ctx, m); err != nil {
		return err
	}

	log.Info().Int64("id", m.ID).Msg("movement edited")
	return nil
}

// DeleteMovement removes a movement row
func (s *EditorService) DeleteMovement(ctx context.Context, id int64) error {
	if err := s.Store.Movements().Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Int64("id", id).Msg("movement deleted")
	return nil
}

// UpdatePosition corrects the supplied columns of an existing position
// Logic:
//  1. Load the stored row (ErrNotFound when absent)
//  2. Apply the non-nil patch fields
//  3. A changed current price counts as a fresh price: priced-at becomes now.
//     An unchanged price keeps the priced-at of the last mark.
//  4. The CASH row keeps its price, average cost and category pinned
func (s *EditorService) UpdatePosition(ctx context.Context, patch PositionPatch) (*domain.AssetPosition, error) {
	ticker := domain.NormalizeTicker(patch.Ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker cannot be empty", domain.ErrInvalidInput)
	}

	var position *domain.AssetPosition
	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		p, err := repos.Positions().GetByTicker(ctx, ticker)
		if err != nil {
			return err
		}

		if patch.Quantity != nil {
			p.Quantity = *patch.Quantity
		}
		if patch.AverageCost != nil {
			p.AverageCost = *patch.AverageCost
		}
		if patch.StopLoss != nil {
			p.StopLoss = *patch.StopLoss
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		if patch.CurrentPrice != nil && !patch.CurrentPrice.Equal(p.CurrentPrice) {
			p.CurrentPrice = *patch.CurrentPrice
			p.PricedAt = s.Now()
		}

		if p.IsCash() {
			p.CurrentPrice = decimal.NewFromInt(1)
			p.AverageCost = decimal.NewFromInt(1)
			p.Category = domain.CategoryCash
		}

		if err := p.Validate(); err != nil {
			return err
		}

		if err := repos.Positions().Update(ctx, p); err != nil {
			return err
		}

		position = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("ticker", position.Ticker).Msg("position edited")
	return position, nil
}

// DeletePosition removes an asset position row. The CASH row cannot be deleted.
func (s *EditorService) DeletePosition(ctx context.Context, ticker string) error {
	ticker = domain.NormalizeTicker(ticker)
	if ticker == domain.CashTicker {
		return fmt.Errorf("%w: the %s position cannot be deleted", domain.ErrInvalidInput, domain.CashTicker)
	}

	if err := s.Store.Positions().Delete(ctx, ticker); err != nil {
		return err
	}

	log.Info().Str("ticker", ticker).Msg("position deleted")
	return nil
}
