package contribution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fundquota-backend/internal/domain"
	"github.com/simaogato/fundquota-backend/internal/usecase/valuation"
)

// RecordMovementInput represents the input for recording an investor movement
type RecordMovementInput struct {
	Date         time.Time
	InvestorName string
	Kind         domain.MovementKind
	CashAmount   decimal.Decimal
	TickerRef    string
	MarkID       uuid.UUID // Price mark proving prices were refreshed; uuid.Nil when none
}

// Policy holds the configurable rules of the contribution processor
type Policy struct {
	// RequireMark demands a fresh price mark while the fund holds non-cash assets
	RequireMark bool

	// MaxMarkAge rejects marks older than this age. Zero disables the check.
	MaxMarkAge time.Duration

	// AllowOverWithdrawal lets withdrawals exceed free cash or the investor's shares
	AllowOverWithdrawal bool
}

// DefaultPolicy returns the policy used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{RequireMark: true}
}

// ContributionService converts investor cash into fund shares and back
type ContributionService struct {
	Store     domain.LedgerStore
	Valuation *valuation.ValuationService
	Policy    Policy
	Now       func() time.Time
}

// NewContributionService creates a new ContributionService instance
func NewContributionService(store domain.LedgerStore, valuationService *valuation.ValuationService, policy Policy) *ContributionService {
	return &ContributionService{
		Store:     store,
		Valuation: valuationService,
		Policy:    policy,
		Now:       time.Now,
	}
}

// RecordMovement records a contribution or withdrawal at the current quota
// Logic:
//  1. Validate input; nothing is persisted on failure
//  2. Read CASH, then check the price mark covers every held non-cash position
//  3. quota = current quota (1 when not positive); shares = cash / quota, signed by kind
//  4. Guard withdrawals against free cash and the investor's share balance
//  5. Append the movement, adjust CASH by ±cash, register the quota for the movement date
//
// Steps 2 to 5 run in one transaction.
func (s *ContributionService) RecordMovement(ctx context.Context, input RecordMovementInput) (*domain.Movement, error) {
	input.InvestorName = strings.TrimSpace(input.InvestorName)
	if input.InvestorName == "" {
		return nil, fmt.Errorf("%w: investor name cannot be empty", domain.ErrInvalidInput)
	}
	if input.Kind != domain.MovementKindContribution && input.Kind != domain.MovementKindWithdrawal {
		return nil, fmt.Errorf("%w: unknown movement kind %q", domain.ErrInvalidInput, input.Kind)
	}
	if !input.CashAmount.IsPositive() {
		return nil, fmt.Errorf("%w: cash amount must be positive", domain.ErrInvalidAmount)
	}

	now := s.Now()
	if input.Date.IsZero() {
		input.Date = now
	}
	input.TickerRef = domain.NormalizeTicker(input.TickerRef)
	if input.TickerRef == "" {
		input.TickerRef = domain.CashTicker
	}

	var movement *domain.Movement
	err := s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		// CASH is read first; on PostgreSQL its row stays locked until commit
		cash, err := repos.Positions().GetByTicker(ctx, domain.CashTicker)
		if err != nil {
			return fmt.Errorf("failed to get cash position: %w", err)
		}

		if s.Policy.RequireMark {
			if err := s.checkFreshness(ctx, repos, input.MarkID, now); err != nil {
				return err
			}
		}

		quota, err := s.Valuation.Bind(repos).CurrentQuota(ctx)
		if err != nil {
			return err
		}
		if !quota.IsPositive() {
			quota = domain.BootstrapQuota
		}

		shares := input.CashAmount.Div(quota)

		if input.Kind == domain.MovementKindWithdrawal && !s.Policy.AllowOverWithdrawal {
			if err := s.checkWithdrawal(ctx, repos, input, cash, shares); err != nil {
				return err
			}
		}

		movement = &domain.Movement{
			Date:         domain.DateOf(input.Date),
			InvestorName: input.InvestorName,
			Kind:         input.Kind,
			CashAmount:   input.CashAmount,
			QuotaAtTime:  quota,
			ShareDelta:   shares.Mul(input.Kind.Sign()),
			TickerRef:    input.TickerRef,
		}
		if err := movement.Validate(); err != nil {
			return err
		}

		if err := repos.Movements().Create(ctx, movement); err != nil {
			return err
		}

		cash.Quantity = cash.Quantity.Add(input.CashAmount.Mul(input.Kind.Sign()))
		if err := repos.Positions().Update(ctx, cash); err != nil {
			return err
		}

		_, err = s.Valuation.Bind(repos).RecordQuotaHistory(ctx, movement.Date)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("id", movement.ID).
		Str("investor", movement.InvestorName).
		Str("kind", string(movement.Kind)).
		Stringer("cash", movement.CashAmount).
		Stringer("quota", movement.QuotaAtTime).
		Msg("movement recorded")

	return movement, nil
}

// checkFreshness requires markID to name a mark no older than the policy
// allows and taken before every held non-cash position was last priced.
func (s *ContributionService) checkFreshness(ctx context.Context, repos domain.Repositories, markID uuid.UUID, now time.Time) error {
	positions, err := repos.Positions().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list positions: %w", err)
	}

	var held []*domain.AssetPosition
	for _, p := range positions {
		if !p.IsCash() && p.Quantity.IsPositive() {
			held = append(held, p)
		}
	}
	if len(held) == 0 {
		return nil
	}

	if markID == uuid.Nil {
		return fmt.Errorf("%w: a price mark is required while assets are held", domain.ErrStalePrices)
	}

	mark, err := repos.PriceMarks().GetByID(ctx, markID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown price mark %s", domain.ErrStalePrices, markID)
		}
		return fmt.Errorf("failed to get price mark: %w", err)
	}

	if s.Policy.MaxMarkAge > 0 && now.Sub(mark.MarkedAt) > s.Policy.MaxMarkAge {
		return fmt.Errorf("%w: price mark %s is older than %s", domain.ErrStalePrices, markID, s.Policy.MaxMarkAge)
	}

	for _, p := range held {
		if p.PricedAt.Before(mark.MarkedAt) {
			return fmt.Errorf("%w: %s was not priced by mark %s", domain.ErrStalePrices, p.Ticker, markID)
		}
	}

	return nil
}

// checkWithdrawal rejects a withdrawal larger than the free cash or than the
// investor's replayed share balance. Residue up to DustShares is tolerated so
// an investor can always withdraw their full value.
func (s *ContributionService) checkWithdrawal(
	ctx context.Context,
	repos domain.Repositories,
	input RecordMovementInput,
	cash *domain.AssetPosition,
	shares decimal.Decimal,
) error {
	if input.CashAmount.GreaterThan(cash.Quantity) {
		return fmt.Errorf("%w: withdrawal %s exceeds free cash %s", domain.ErrInsufficientCash, input.CashAmount, cash.Quantity)
	}

	movements, err := repos.Movements().ListByInvestor(ctx, input.InvestorName)
	if err != nil {
		return fmt.Errorf("failed to list movements of %s: %w", input.InvestorName, err)
	}

	balance := domain.ReplayInvestor(input.InvestorName, movements).Shares
	if shares.GreaterThan(balance.Add(domain.DustShares)) {
		return fmt.Errorf("%w: %s holds %s shares, withdrawal needs %s",
			domain.ErrInsufficientShares, input.InvestorName, balance, shares)
	}

	return nil
}
