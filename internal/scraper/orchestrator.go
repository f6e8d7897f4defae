package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"efl_xg/ingestion/internal/client"
	"efl_xg/ingestion/internal/etl"
	"efl_xg/ingestion/internal/metrics"
	"efl_xg/ingestion/internal/models"

	"github.com/rs/zerolog"
)

// RowProvider returns the raw fixture rows for one league season
type RowProvider interface {
	FetchFixtures(ctx context.Context, league models.League, season int) ([]models.RawRow, error)
}

// Sleeper pauses between requests
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ClockSleeper waits on the wall clock, returning early if ctx is cancelled
type ClockSleeper struct{}

func (ClockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy decides what happens when one league season fails
type Policy int

const (
	// ContinueOnError records the failure and moves to the next pair
	ContinueOnError Policy = iota
	// FailFast aborts the batch on the first failure
	FailFast
)

// FailureKind classifies a pair failure
type FailureKind string

const (
	KindFetch  FailureKind = "fetch"
	KindSchema FailureKind = "schema"
	KindParse  FailureKind = "parse"
	KindOther  FailureKind = "other"
)

// PairFailure records why one league season produced no records
type PairFailure struct {
	Season int
	League models.League
	Kind   FailureKind
	Err    error
}

func (f PairFailure) Error() string {
	return fmt.Sprintf("%s %d (%s): %v", f.League, f.Season, f.Kind, f.Err)
}

// BatchError summarises every failed pair of a run
type BatchError struct {
	Failures []PairFailure
	Total    int
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%d of %d league seasons failed: %s", len(e.Failures), e.Total, strings.Join(parts, "; "))
}

// Unwrap exposes the individual pair errors to errors.Is/As
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// RunConfig selects what to scrape. It is passed by value and never modified.
type RunConfig struct {
	Seasons []int
	Leagues []models.League
	Sleep   time.Duration
}

// Pairs returns the number of league seasons the run covers
func (rc RunConfig) Pairs() int {
	return len(rc.Seasons) * len(rc.Leagues)
}

// TotalSleep is the built-in delay the run will spend waiting
func (rc RunConfig) TotalSleep() time.Duration {
	return time.Duration(rc.Pairs()) * rc.Sleep
}

// RunResult holds the accumulated matches and any failed pairs
type RunResult struct {
	Matches  []models.MatchRecord
	Failures []PairFailure
	total    int
}

// Err returns a *BatchError when any pair failed, nil otherwise
func (r *RunResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return &BatchError{Failures: r.Failures, Total: r.total}
}

// Orchestrator scrapes every (season, league) pair and cleans the rows
type Orchestrator struct {
	provider RowProvider
	cleaner  *etl.Cleaner
	sleeper  Sleeper
	policy   Policy
	logger   zerolog.Logger
}

// NewOrchestrator creates an orchestrator. A nil sleeper uses ClockSleeper.
func NewOrchestrator(provider RowProvider, cleaner *etl.Cleaner, sleeper Sleeper, policy Policy, logger zerolog.Logger) *Orchestrator {
	if sleeper == nil {
		sleeper = ClockSleeper{}
	}
	return &Orchestrator{
		provider: provider,
		cleaner:  cleaner,
		sleeper:  sleeper,
		policy:   policy,
		logger:   logger.With().Str("component", "scraper").Logger(),
	}
}

// Run scrapes seasons in the outer loop and leagues in the inner loop,
// sleeping before every fetch. Matches are appended in visit order.
//
// Cancelling ctx stops the run; the returned result holds what was
// accumulated so far.
func (o *Orchestrator) Run(ctx context.Context, rc RunConfig) (*RunResult, error) {
	result := &RunResult{total: rc.Pairs()}

	o.logger.Info().
		Ints("seasons", rc.Seasons).
		Int("leagues", len(rc.Leagues)).
		Dur("sleep_per_request", rc.Sleep).
		Dur("total_sleep", rc.TotalSleep()).
		Msgf("Scrape has %s of built-in sleep", rc.TotalSleep())

	for _, season := range rc.Seasons {
		for _, league := range rc.Leagues {
			if err := o.sleeper.Sleep(ctx, rc.Sleep); err != nil {
				return result, fmt.Errorf("scrape interrupted before %s %d: %w", league, season, err)
			}
			metrics.RecordSleep(rc.Sleep.Seconds())

			matches, err := o.scrapePair(ctx, league, season)
			if err != nil {
				if ctx.Err() != nil {
					return result, fmt.Errorf("scrape interrupted during %s %d: %w", league, season, ctx.Err())
				}

				failure := PairFailure{Season: season, League: league, Kind: classify(err), Err: err}
				metrics.RecordPair("failed")
				o.logger.Error().
					Err(err).
					Str("league", league.String()).
					Int("season", season).
					Str("kind", string(failure.Kind)).
					Msg("League season failed")

				if o.policy == FailFast {
					return result, &BatchError{Failures: []PairFailure{failure}, Total: result.total}
				}
				result.Failures = append(result.Failures, failure)
				continue
			}

			metrics.RecordPair("success")
			result.Matches = append(result.Matches, matches...)
		}
	}

	o.logger.Info().
		Int("matches", len(result.Matches)).
		Int("failed_pairs", len(result.Failures)).
		Msg("Scrape complete")

	return result, nil
}

func (o *Orchestrator) scrapePair(ctx context.Context, league models.League, season int) ([]models.MatchRecord, error) {
	rows, err := o.provider.FetchFixtures(ctx, league, season)
	if err != nil {
		return nil, err
	}
	return o.cleaner.Clean(rows, league, season)
}

func classify(err error) FailureKind {
	var (
		fetchErr  *client.FetchError
		schemaErr *etl.SchemaError
		parseErr  *etl.ParseError
	)
	switch {
	case errors.As(err, &fetchErr):
		return KindFetch
	case errors.As(err, &schemaErr):
		return KindSchema
	case errors.As(err, &parseErr):
		return KindParse
	default:
		return KindOther
	}
}
