// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger deletes reports that have not been edited since a cutoff.
type Purger interface {
	PurgeStale(ctx context.Context, before time.Time) (int, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	purger   Purger
	ttl      time.Duration
	schedule string
	now      func() time.Time
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that purges reports older than ttl on the
// given 5-field cron schedule.
func NewScheduler(purger Purger, schedule string, ttl time.Duration, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		purger:   purger,
		ttl:      ttl,
		schedule: schedule,
		now:      time.Now,
		logger:   logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.purgeStaleReports); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("purge_schedule", s.schedule),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers the purge synchronously.
func (s *Scheduler) RunNow() {
	s.purgeStaleReports()
}

func (s *Scheduler) purgeStaleReports() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.ttl)
	s.logger.Info("starting stale report purge", slog.Time("cutoff", cutoff))

	n, err := s.purger.PurgeStale(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to purge stale reports", slog.Any("error", err))
		return
	}

	s.logger.Info("stale report purge completed", slog.Int("reports_purged", n))
}
