package scheduler

import (
	"context"
	"errors"
	"fmt"

	"efl_xg/ingestion/internal/pipeline"
	"efl_xg/ingestion/internal/scraper"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, syncType string, rc scraper.RunConfig) (*pipeline.Result, error)
}

// Scheduler re-scrapes the season in progress on a cron schedule so newly
// played fixtures pick up their scores and xG
type Scheduler struct {
	spec    string
	refresh scraper.RunConfig
	runner  Runner
	cron    *cron.Cron
	logger  zerolog.Logger
}

// NewScheduler creates a new scheduler instance. refresh selects what the
// nightly job scrapes.
func NewScheduler(spec string, refresh scraper.RunConfig, runner Runner, logger zerolog.Logger) *Scheduler {
	logger = logger.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		spec:    spec,
		refresh: refresh,
		runner:  runner,
		logger:  logger,
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(&logger)),
			cron.SkipIfStillRunning(cron.PrintfLogger(&logger)),
		)),
	}
}

// Start schedules the nightly refresh
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.spec, func() {
		s.logger.Info().Msg("Running nightly refresh...")
		if err := s.RefreshNow(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Nightly refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule nightly refresh: %w", err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.spec).
		Ints("seasons", s.refresh.Seasons).
		Msg("Nightly refresh scheduled")

	return nil
}

// RefreshNow runs the refresh job immediately. Pair failures are logged and
// do not fail the refresh.
func (s *Scheduler) RefreshNow(ctx context.Context) error {
	res, err := s.runner.Run(ctx, "nightly", s.refresh)

	var batchErr *scraper.BatchError
	if errors.As(err, &batchErr) && res != nil {
		s.logger.Warn().
			Int("failed_pairs", len(batchErr.Failures)).
			Int("total_pairs", batchErr.Total).
			Msg("Refresh completed with failed league seasons")
		return nil
	}
	return err
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.logger.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	s.logger.Info().Msg("Scheduler stopped")
}
