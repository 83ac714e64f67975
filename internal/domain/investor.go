package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DustShares is the share count at or below which an investor is considered
// out of the fund. It hides floating residue left by full withdrawals.
var DustShares = decimal.NewFromFloat(0.001)

// InvestorPosition is the derived holding of one investor.
// It is never persisted; it is recomputed by replaying movements.
type InvestorPosition struct {
	InvestorName string
	Shares       decimal.Decimal
	AverageCost  decimal.Decimal // Weighted-average quota paid per share
}

// Apply folds one movement into the position.
// Logic:
//   - Contribution: new = shares + delta; avg = (shares*avg + delta*quota) / new
//   - Withdrawal: shares += delta; at or below zero the position resets to 0/0
//
// Withdrawals never change the average cost of the remaining shares.
func (p *InvestorPosition) Apply(m *Movement) {
	delta := m.ShareDelta

	if delta.IsPositive() {
		newShares := p.Shares.Add(delta)
		if newShares.IsPositive() {
			held := p.Shares.Mul(p.AverageCost)
			added := delta.Mul(m.QuotaAtTime)
			p.AverageCost = held.Add(added).Div(newShares)
		}
		p.Shares = newShares
		return
	}

	p.Shares = p.Shares.Add(delta)
	if p.Shares.LessThanOrEqual(decimal.Zero) {
		p.Shares = decimal.Zero
		p.AverageCost = decimal.Zero
	}
}

// ReturnPct returns the percentage gain of the position at the given quota.
// Returns 0 when the average cost is not positive.
func (p *InvestorPosition) ReturnPct(quota decimal.Decimal) decimal.Decimal {
	if !p.AverageCost.IsPositive() {
		return decimal.Zero
	}
	return quota.Sub(p.AverageCost).Div(p.AverageCost).Mul(decimal.NewFromInt(100))
}

// IsActive reports whether the investor holds more than dust
func (p *InvestorPosition) IsActive() bool {
	return p.Shares.GreaterThan(DustShares)
}

// SortMovements orders movements canonically by (Date, ID)
func SortMovements(movements []*Movement) {
	sort.SliceStable(movements, func(i, j int) bool {
		if !movements[i].Date.Equal(movements[j].Date) {
			return movements[i].Date.Before(movements[j].Date)
		}
		return movements[i].ID < movements[j].ID
	})
}

// ReplayMovements derives every investor position from the movement history.
// The input is not modified; it is replayed in (Date, ID) order.
func ReplayMovements(movements []*Movement) map[string]*InvestorPosition {
	ordered := make([]*Movement, len(movements))
	copy(ordered, movements)
	SortMovements(ordered)

	positions := make(map[string]*InvestorPosition)
	for _, m := range ordered {
		p, ok := positions[m.InvestorName]
		if !ok {
			p = &InvestorPosition{
				InvestorName: m.InvestorName,
				Shares:       decimal.Zero,
				AverageCost:  decimal.Zero,
			}
			positions[m.InvestorName] = p
		}
		p.Apply(m)
	}

	return positions
}

// ReplayInvestor derives the position of a single investor
func ReplayInvestor(name string, movements []*Movement) *InvestorPosition {
	if p, ok := ReplayMovements(movements)[name]; ok {
		return p
	}
	return &InvestorPosition{InvestorName: name, Shares: decimal.Zero, AverageCost: decimal.Zero}
}
