package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date format used for movement and quota dates
const DateLayout = "2006-01-02"

// MovementKind represents the direction of an investor movement
type MovementKind string

const (
	MovementKindContribution MovementKind = "CONTRIBUTION"
	MovementKindWithdrawal   MovementKind = "WITHDRAWAL"
)

// Movement represents an investor contribution or withdrawal in the ledger.
// Movements are replayed in (Date, ID) order to derive investor positions.
type Movement struct {
	ID           int64
	Date         time.Time
	InvestorName string
	Kind         MovementKind
	CashAmount   decimal.Decimal // Always positive
	QuotaAtTime  decimal.Decimal // Quota used to convert cash into shares
	ShareDelta   decimal.Decimal // Positive for contributions, negative for withdrawals
	TickerRef    string
}

// ParseMovementKind converts user input into a MovementKind.
// Accepts the canonical names case-insensitively.
func ParseMovementKind(s string) (MovementKind, error) {
	switch MovementKind(strings.ToUpper(strings.TrimSpace(s))) {
	case MovementKindContribution:
		return MovementKindContribution, nil
	case MovementKindWithdrawal:
		return MovementKindWithdrawal, nil
	default:
		return "", fmt.Errorf("%w: movement kind must be CONTRIBUTION or WITHDRAWAL, got %q", ErrInvalidInput, s)
	}
}

// Sign returns +1 for contributions and -1 for withdrawals
func (k MovementKind) Sign() decimal.Decimal {
	if k == MovementKindWithdrawal {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Validate ensures the movement adheres to domain rules
func (m *Movement) Validate() error {
	if strings.TrimSpace(m.InvestorName) == "" {
		return fmt.Errorf("%w: investor name cannot be empty", ErrInvalidInput)
	}

	if m.Kind != MovementKindContribution && m.Kind != MovementKindWithdrawal {
		return fmt.Errorf("%w: movement kind must be CONTRIBUTION or WITHDRAWAL", ErrInvalidInput)
	}

	if m.CashAmount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: cash amount must be positive", ErrInvalidAmount)
	}

	if m.QuotaAtTime.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: quota must be positive", ErrInvalidAmount)
	}

	// Share delta sign must follow the kind
	if m.Kind == MovementKindContribution && !m.ShareDelta.IsPositive() {
		return fmt.Errorf("%w: contribution share delta must be positive", ErrInvalidAmount)
	}
	if m.Kind == MovementKindWithdrawal && !m.ShareDelta.IsNegative() {
		return fmt.Errorf("%w: withdrawal share delta must be negative", ErrInvalidAmount)
	}

	return nil
}

// ParseDate parses an ISO date (YYYY-MM-DD) into a UTC midnight time
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrInvalidInput, s)
	}
	return d, nil
}

// FormatDate renders t as an ISO date
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseAmount parses a decimal amount and requires it to be strictly positive
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, d)
	}
	return d, nil
}

// DateOf strips the clock from t, keeping its calendar date
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
