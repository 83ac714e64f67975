package investor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/simaogato/fundquota-backend/internal/domain"
	"github.com/simaogato/fundquota-backend/internal/usecase/valuation"
)

// Row is one line of the investor report
type Row struct {
	InvestorName string
	Shares       decimal.Decimal
	AverageCost  decimal.Decimal
	ReturnPct    decimal.Decimal
}

// InvestorService derives investor positions from the movement history
type InvestorService struct {
	Store     domain.LedgerStore
	Valuation *valuation.ValuationService
}

// NewInvestorService creates a new InvestorService instance
func NewInvestorService(store domain.LedgerStore, valuationService *valuation.ValuationService) *InvestorService {
	return &InvestorService{
		Store:     store,
		Valuation: valuationService,
	}
}

// Report lists every investor holding more than dust, ordered by name,
// with the return of their average cost against the current quota.
func (s *InvestorService) Report(ctx context.Context) ([]Row, error) {
	movements, err := s.Store.Movements().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	quota, err := s.Valuation.CurrentQuota(ctx)
	if err != nil {
		return nil, err
	}

	return BuildReport(movements, quota), nil
}

// Position returns the report row of one investor.
// Returns ErrNotFound when the investor has no movement at all.
func (s *InvestorService) Position(ctx context.Context, investorName string) (*Row, error) {
	name := strings.TrimSpace(investorName)
	if name == "" {
		return nil, fmt.Errorf("%w: investor name cannot be empty", domain.ErrInvalidInput)
	}

	movements, err := s.Store.Movements().ListByInvestor(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements of %s: %w", name, err)
	}
	if len(movements) == 0 {
		return nil, fmt.Errorf("investor %s: %w", name, domain.ErrNotFound)
	}

	quota, err := s.Valuation.CurrentQuota(ctx)
	if err != nil {
		return nil, err
	}

	p := domain.ReplayInvestor(name, movements)
	row := toRow(p, quota)
	return &row, nil
}

// BuildReport replays movements and prices each active investor at quota
func BuildReport(movements []*domain.Movement, quota decimal.Decimal) []Row {
	positions := domain.ReplayMovements(movements)

	rows := make([]Row, 0, len(positions))
	for _, p := range positions {
		if !p.IsActive() {
			continue
		}
		rows = append(rows, toRow(p, quota))
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].InvestorName < rows[j].InvestorName
	})

	return rows
}

func toRow(p *domain.InvestorPosition, quota decimal.Decimal) Row {
	return Row{
		InvestorName: p.InvestorName,
		Shares:       p.Shares,
		AverageCost:  p.AverageCost,
		ReturnPct:    p.ReturnPct(quota),
	}
}
