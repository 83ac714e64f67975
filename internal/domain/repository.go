package domain

import (
	"context"

	"github.com/google/uuid"
)

// MovementRepository defines the interface for movement persistence operations
type MovementRepository interface {
	// Create inserts a new movement and sets its ID
	Create(ctx context.Context, m *Movement) error

	// GetByID retrieves a movement by its ID
	// Returns ErrNotFound if the movement does not exist
	GetByID(ctx context.Context, id int64) (*Movement, error)

	// List retrieves every movement in replay order (date, id)
	List(ctx context.Context) ([]*Movement, error)

	// ListByInvestor retrieves the movements of one investor in replay order
	ListByInvestor(ctx context.Context, investorName string) ([]*Movement, error)

	// Recent retrieves the latest movements by id descending
	Recent(ctx context.Context, limit int) ([]*Movement, error)

	// Update overwrites every column of an existing movement
	Update(ctx context.Context, m *Movement) error

	// Delete removes a movement by its ID
	Delete(ctx context.Context, id int64) error
}

// PositionRepository defines the interface for asset position persistence operations
type PositionRepository interface {
	// GetByTicker retrieves a position by its ticker
	// Returns ErrNotFound if the fund does not hold the ticker
	GetByTicker(ctx context.Context, ticker string) (*AssetPosition, error)

	// List retrieves every position ordered by ticker
	List(ctx context.Context) ([]*AssetPosition, error)

	// Create inserts a new position
	Create(ctx context.Context, p *AssetPosition) error

	// Update overwrites every column of an existing position
	Update(ctx context.Context, p *AssetPosition) error

	// Delete removes a position by its ticker
	Delete(ctx context.Context, ticker string) error
}

// QuotaHistoryRepository defines the interface for quota history persistence operations
type QuotaHistoryRepository interface {
	// Upsert replaces the point registered for the same date, if any
	Upsert(ctx context.Context, point *QuotaPoint) error

	// List retrieves every point ordered by date
	List(ctx context.Context) ([]*QuotaPoint, error)
}

// PriceMarkRepository defines the interface for price mark persistence operations
type PriceMarkRepository interface {
	// Create inserts a new price mark
	Create(ctx context.Context, mark *PriceMark) error

	// GetByID retrieves a price mark by its token
	// Returns ErrNotFound if the token was never issued
	GetByID(ctx context.Context, id uuid.UUID) (*PriceMark, error)
}

// Repositories groups the repositories of one ledger scope.
// A scope is either the whole store or a single open transaction.
type Repositories interface {
	Movements() MovementRepository
	Positions() PositionRepository
	QuotaHistory() QuotaHistoryRepository
	PriceMarks() PriceMarkRepository
}

// LedgerStore is the persistent ledger.
// Reads may go straight through the embedded Repositories; every multi-row
// write goes through WithinTx so it commits or rolls back as one unit.
type LedgerStore interface {
	Repositories

	// WithinTx runs fn against repositories bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
