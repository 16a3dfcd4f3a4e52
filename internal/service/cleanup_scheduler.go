package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultCleanupSchedule = "@every 1h"

type reportCleaner interface {
	Cleanup(ttl time.Duration) ([]string, error)
}

// CleanupScheduler periodically removes report files that were never
// streamed, e.g. because the client disconnected mid-download.
type CleanupScheduler struct {
	cron    *cron.Cron
	reports reportCleaner
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCleanupScheduler parses schedule (cron expression or @every descriptor) and
// registers the cleanup job. An empty schedule falls back to hourly.
func NewCleanupScheduler(reports reportCleaner, schedule string, ttl time.Duration, logger *zap.Logger) (*CleanupScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schedule == "" {
		schedule = defaultCleanupSchedule
	}
	s := &CleanupScheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		reports: reports,
		ttl:     ttl,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("parse cleanup schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *CleanupScheduler) Start() {
	s.cron.Start()
	s.logger.Info("report cleanup scheduled", zap.Duration("ttl", s.ttl))
}

// Stop halts scheduling and waits for a running job until ctx expires.
func (s *CleanupScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("report cleanup still running at shutdown")
	}
}

// RunOnce removes stale reports immediately.
func (s *CleanupScheduler) RunOnce() {
	removed, err := s.reports.Cleanup(s.ttl)
	if err != nil {
		s.logger.Error("report cleanup failed", zap.Int("removed", len(removed)), zap.Error(err))
	}
}
