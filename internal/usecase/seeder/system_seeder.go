package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/simaogato/fundquota-backend/internal/domain"
)

// SystemSeeder ensures the rows the ledger cannot work without exist
type SystemSeeder struct {
	repo domain.PositionRepository
}

// NewSystemSeeder creates a new SystemSeeder instance
func NewSystemSeeder(repo domain.PositionRepository) *SystemSeeder {
	return &SystemSeeder{
		repo: repo,
	}
}

// Seed creates the CASH position when it is missing
// An existing CASH row is left untouched, so Seed is idempotent.
func (s *SystemSeeder) Seed(ctx context.Context) error {
	_, err := s.repo.GetByTicker(ctx, domain.CashTicker)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to look up cash position: %w", err)
	}

	cash := domain.NewCashPosition()

	// Validate before creating
	if err := cash.Validate(); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, cash); err != nil {
		return err
	}

	log.Info().Str("ticker", cash.Ticker).Msg("cash position seeded")
	return nil
}
