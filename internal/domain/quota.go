package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BootstrapQuota is the unit price of the fund before any share exists
var BootstrapQuota = decimal.NewFromInt(1)

// QuotaPoint represents the registered quota of one calendar day.
// There is at most one point per date; registering a date again overwrites it.
type QuotaPoint struct {
	Date  time.Time
	Value decimal.Decimal
}

// PriceMark records one mark-to-market run. Its ID is the freshness token a
// contribution must present while the fund holds non-cash assets.
type PriceMark struct {
	ID       uuid.UUID
	MarkedAt time.Time
}

// NetAssetValue sums the market value of every position, cash included
func NetAssetValue(positions []*AssetPosition) decimal.Decimal {
	nav := decimal.Zero
	for _, p := range positions {
		nav = nav.Add(p.MarketValue())
	}
	return nav
}

// TotalShares sums the share delta of every movement
func TotalShares(movements []*Movement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(m.ShareDelta)
	}
	return total
}

// Quota computes NAV per share.
// When no shares are outstanding the bootstrap quota is returned, which fixes
// the price of the very first contribution at 1 per share.
func Quota(nav, shares decimal.Decimal) decimal.Decimal {
	if shares.LessThanOrEqual(decimal.Zero) {
		return BootstrapQuota
	}
	return nav.Div(shares)
}
