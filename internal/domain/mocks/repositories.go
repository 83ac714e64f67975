// Package mocks provides testify mocks of the ledger repositories for use-case tests.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/simaogato/fundquota-backend/internal/domain"
)

// MockMovementRepository is a mock implementation of MovementRepository for testing
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Create(ctx context.Context, mv *domain.Movement) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}

func (m *MockMovementRepository) GetByID(ctx context.Context, id int64) (*domain.Movement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}

func (m *MockMovementRepository) List(ctx context.Context) ([]*domain.Movement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Movement), args.Error(1)
}

func (m *MockMovementRepository) ListByInvestor(ctx context.Context, investorName string) ([]*domain.Movement, error) {
	args := m.Called(ctx, investorName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Movement), args.Error(1)
}

func (m *MockMovementRepository) Recent(ctx context.Context, limit int) ([]*domain.Movement, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Movement), args.Error(1)
}

func (m *MockMovementRepository) Update(ctx context.Context, mv *domain.Movement) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}

func (m *MockMovementRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPositionRepository is a mock implementation of PositionRepository for testing
type MockPositionRepository struct {
	mock.Mock
}

func (m *MockPositionRepository) GetByTicker(ctx context.Context, ticker string) (*domain.AssetPosition, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssetPosition), args.Error(1)
}

func (m *MockPositionRepository) List(ctx context.Context) ([]*domain.AssetPosition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AssetPosition), args.Error(1)
}

func (m *MockPositionRepository) Create(ctx context.Context, p *domain.AssetPosition) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPositionRepository) Update(ctx context.Context, p *domain.AssetPosition) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPositionRepository) Delete(ctx context.Context, ticker string) error {
	args := m.Called(ctx, ticker)
	return args.Error(0)
}

// MockQuotaHistoryRepository is a mock implementation of QuotaHistoryRepository for testing
type MockQuotaHistoryRepository struct {
	mock.Mock
}

func (m *MockQuotaHistoryRepository) Upsert(ctx context.Context, point *domain.QuotaPoint) error {
	args := m.Called(ctx, point)
	return args.Error(0)
}

func (m *MockQuotaHistoryRepository) List(ctx context.Context) ([]*domain.QuotaPoint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QuotaPoint), args.Error(1)
}

// MockPriceMarkRepository is a mock implementation of PriceMarkRepository for testing
type MockPriceMarkRepository struct {
	mock.Mock
}

func (m *MockPriceMarkRepository) Create(ctx context.Context, mark *domain.PriceMark) error {
	args := m.Called(ctx, mark)
	return args.Error(0)
}

func (m *MockPriceMarkRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PriceMark, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceMark), args.Error(1)
}

// MockStore implements domain.LedgerStore over the mock repositories.
// WithinTx runs fn directly against the same mocks and counts the units opened.
type MockStore struct {
	MovementRepo     *MockMovementRepository
	PositionRepo     *MockPositionRepository
	QuotaHistoryRepo *MockQuotaHistoryRepository
	PriceMarkRepo    *MockPriceMarkRepository

	TxCount int
	TxErr   error // Returned by WithinTx instead of running fn when set
}

// NewMockStore creates a MockStore with fresh repository mocks
func NewMockStore() *MockStore {
	return &MockStore{
		MovementRepo:     new(MockMovementRepository),
		PositionRepo:     new(MockPositionRepository),
		QuotaHistoryRepo: new(MockQuotaHistoryRepository),
		PriceMarkRepo:    new(MockPriceMarkRepository),
	}
}

func (s *MockStore) Movements() domain.MovementRepository        { return s.MovementRepo }
func (s *MockStore) Positions() domain.PositionRepository        { return s.PositionRepo }
func (s *MockStore) QuotaHistory() domain.QuotaHistoryRepository { return s.QuotaHistoryRepo }
func (s *MockStore) PriceMarks() domain.PriceMarkRepository      { return s.PriceMarkRepo }

func (s *MockStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	if s.TxErr != nil {
		return s.TxErr
	}
	s.TxCount++
	return fn(ctx, s)
}

// AssertExpectations asserts every repository mock met its expectations
func (s *MockStore) AssertExpectations(t mock.TestingT) {
	s.MovementRepo.AssertExpectations(t)
	s.PositionRepo.AssertExpectations(t)
	s.QuotaHistoryRepo.AssertExpectations(t)
	s.PriceMarkRepo.AssertExpectations(t)
}
