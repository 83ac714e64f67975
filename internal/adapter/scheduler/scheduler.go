package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/simaogato/fundquota-backend/internal/domain"
)

// QuotaRecorder registers the quota of a date
type QuotaRecorder interface {
	RecordQuotaHistory(ctx context.Context, date time.Time) (*domain.QuotaPoint, error)
}

// Scheduler manages the cron tasks of the fund.
type Scheduler struct {
	Cron     *cron.Cron
	Recorder QuotaRecorder
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler using standard five-field cron specs.
func NewScheduler(ctx context.Context, recorder QuotaRecorder) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(),
		Recorder: recorder,
		Ctx:      ctx,
	}
}

// Register adds the quota snapshot task. An empty spec registers nothing.
func (s *Scheduler) Register(quotaSnapshotCron string) error {
	if quotaSnapshotCron == "" {
		return nil
	}
	if _, err := s.Cron.AddFunc(quotaSnapshotCron, s.RunQuotaSnapshotNow); err != nil {
		return fmt.Errorf("register quota snapshot task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunQuotaSnapshotNow registers today's quota immediately
func (s *Scheduler) RunQuotaSnapshotNow() {
	point, err := s.Recorder.RecordQuotaHistory(s.Ctx, time.Time{})
	if err != nil {
		log.Error().Err(err).Msg("quota snapshot failed")
		return
	}
	log.Info().
		Str("date", domain.FormatDate(point.Date)).
		Stringer("quota", point.Value).
		Msg("quota snapshot recorded")
}
