package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"SolarpunkList/internal/config"
	"SolarpunkList/internal/ports"
)

// Job is one schedulable pipeline entry point.
type Job func(ctx context.Context)

// CronScheduler runs the discovery and refresh pipelines on the
// configured cron expressions.
type CronScheduler struct {
	cron      *cron.Cron
	cfg       config.SchedulerConfig
	discovery Job
	refresh   Job
	logger    *slog.Logger
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// New builds a scheduler around the two pipelines.
func New(cfg config.SchedulerConfig, discovery, refresh Job, logger *slog.Logger) *CronScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronScheduler{
		cron:      cron.New(),
		cfg:       cfg,
		discovery: discovery,
		refresh:   refresh,
		logger:    logger,
	}
}

// Start registers both jobs and begins the cron loop. Registration
// failures surface immediately so a bad expression never silently
// disables a pipeline.
func (s *CronScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.DiscoveryCron, func() {
		s.logger.Info("scheduled discovery run starting")
		s.discovery(ctx)
	}); err != nil {
		return fmt.Errorf("schedule discovery %q: %w", s.cfg.DiscoveryCron, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.RefreshCron, func() {
		s.logger.Info("scheduled refresh run starting")
		s.refresh(ctx)
	}); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", s.cfg.RefreshCron, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		"discoveryCron", s.cfg.DiscoveryCron,
		"refreshCron", s.cfg.RefreshCron,
	)
	return nil
}

// Stop halts scheduling and waits for in-flight jobs to finish, bounded
// by the caller's context.
func (s *CronScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
