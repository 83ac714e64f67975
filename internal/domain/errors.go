package domain

import "errors"

// Sentinel errors returned by the ledger. Use errors.Is to test for them;
// services and adapters wrap them with context.
var (
	// ErrInvalidAmount is returned for non-numeric or non-positive monetary input
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidInput is returned for malformed non-monetary input (empty names, bad dates, unknown kinds)
	ErrInvalidInput = errors.New("invalid input")

	ErrInsufficientCash     = errors.New("insufficient cash")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInsufficientShares   = errors.New("insufficient shares")

	// ErrNoSuchPosition is returned when a trade or price mark references a ticker the fund does not hold
	ErrNoSuchPosition = errors.New("no such position")

	// ErrInvalidPosition is returned when a stored position cannot be used for
	// average-cost arithmetic (e.g. a manually edited negative quantity)
	ErrInvalidPosition = errors.New("invalid position")

	// ErrStalePrices is returned when a contribution is attempted without a
	// price mark covering every held asset
	ErrStalePrices = errors.New("asset prices not refreshed")

	// ErrNotFound is returned when a row addressed by key does not exist
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable is joined to every persistence failure
	ErrStoreUnavailable = errors.New("store unavailable")
)
