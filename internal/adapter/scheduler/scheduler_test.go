package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fundquota-backend/internal/domain"
)

type MockQuotaRecorder struct {
	mock.Mock
}

func (m *MockQuotaRecorder) RecordQuotaHistory(ctx context.Context, date time.Time) (*domain.QuotaPoint, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuotaPoint), args.Error(1)
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(context.Background(), &MockQuotaRecorder{})

	require.NoError(t, s.Register(""))
	assert.Empty(t, s.Cron.Entries())

	require.NoError(t, s.Register("0 18 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.Register("every evening"))
}

func TestScheduler_RunQuotaSnapshotNow(t *testing.T) {
	ctx := context.Background()

	t.Run("Records today's quota", func(t *testing.T) {
		recorder := new(MockQuotaRecorder)
		recorder.On("RecordQuotaHistory", ctx, time.Time{}).Return(&domain.QuotaPoint{
			Date:  time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			Value: decimal.RequireFromString("1.05"),
		}, nil).Once()

		NewScheduler(ctx, recorder).RunQuotaSnapshotNow()
		recorder.AssertExpectations(t)
	})

	t.Run("Failure is logged and swallowed", func(t *testing.T) {
		recorder := new(MockQuotaRecorder)
		recorder.On("RecordQuotaHistory", ctx, time.Time{}).Return(nil, errors.New("store down")).Once()

		assert.NotPanics(t, NewScheduler(ctx, recorder).RunQuotaSnapshotNow)
		recorder.AssertExpectations(t)
	})
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(context.Background(), &MockQuotaRecorder{})
	require.NoError(t, s.Register("@every 1h"))

	s.Start()
	s.Stop()
}
