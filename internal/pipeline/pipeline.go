package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"efl_xg/ingestion/internal/etl"
	"efl_xg/ingestion/internal/metrics"
	"efl_xg/ingestion/internal/modelinput"
	"efl_xg/ingestion/internal/models"
	"efl_xg/ingestion/internal/scraper"
	"efl_xg/ingestion/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Scraper runs a bulk scrape
type Scraper interface {
	Run(ctx context.Context, rc scraper.RunConfig) (*scraper.RunResult, error)
}

// MatchStore persists scraped matches
type MatchStore interface {
	UpsertBatch(ctx context.Context, matches []models.MatchRecord) error
}

// Options controls what a run produces
type Options struct {
	PersistToFile    bool
	MatchDataPath    string
	ModelInputPath   string
	FilterIncomplete bool
	// MergeExisting overlays each run onto the saved match data instead of
	// replacing it, so a current-season refresh keeps past seasons
	MergeExisting bool
}

// Result describes one pipeline run
type Result struct {
	RunID    string
	Matches  []models.MatchRecord
	// Dataset is what the bundle was built from: Matches merged into the
	// saved match data, or Matches alone when nothing was merged
	Dataset  []models.MatchRecord
	Failures []scraper.PairFailure
	Bundle   *modelinput.Bundle
	Summary  modelinput.Summary
}

// Pipeline scrapes, persists and formats match data
type Pipeline struct {
	mu      sync.Mutex
	scraper Scraper
	store   MatchStore
	opts    Options
	logger  zerolog.Logger
}

// New creates a pipeline. store may be nil when no database is configured.
func New(s Scraper, store MatchStore, opts Options, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		scraper: s,
		store:   store,
		opts:    opts,
		logger:  logger,
	}
}

// Run executes scrape, persist and format. Pair failures do not stop the
// run; they are returned as a *scraper.BatchError alongside a full Result.
// Runs are serialised: a second call waits for the first to finish.
func (p *Pipeline) Run(ctx context.Context, syncType string, rc scraper.RunConfig) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Str("sync_type", syncType).Logger()

	logger.Info().
		Ints("seasons", rc.Seasons).
		Int("leagues", len(rc.Leagues)).
		Msg("Pipeline run starting")

	res, err := p.run(ctx, runID, rc, logger)

	status := "success"
	var batchErr *scraper.BatchError
	switch {
	case err == nil:
	case errors.As(err, &batchErr) && res != nil && res.Bundle != nil:
		status = "partial"
	default:
		status = "error"
	}
	metrics.RecordSync(syncType, status, time.Since(start).Seconds())

	event := logger.Info()
	if status != "success" {
		event = logger.Warn().Err(err)
	}
	event.Str("status", status).Dur("duration", time.Since(start)).Msg("Pipeline run finished")

	return res, err
}

func (p *Pipeline) run(ctx context.Context, runID string, rc scraper.RunConfig, logger zerolog.Logger) (*Result, error) {
	scraped, err := p.scraper.Run(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("scrape failed: %w", err)
	}

	res := &Result{
		RunID:    runID,
		Matches:  scraped.Matches,
		Dataset:  scraped.Matches,
		Failures: scraped.Failures,
	}

	if p.opts.PersistToFile {
		if p.opts.MergeExisting {
			merged, err := storage.MergeIntoFile(p.opts.MatchDataPath, res.Matches)
			if err != nil {
				return res, fmt.Errorf("failed to merge matches: %w", err)
			}
			res.Dataset = merged
		} else if err := storage.WriteMatches(p.opts.MatchDataPath, res.Matches); err != nil {
			return res, fmt.Errorf("failed to persist matches: %w", err)
		}
		logger.Info().
			Str("path", p.opts.MatchDataPath).
			Int("scraped", len(res.Matches)).
			Int("matches", len(res.Dataset)).
			Msg("Match data written")
	}

	if p.store != nil {
		if err := p.store.UpsertBatch(ctx, res.Matches); err != nil {
			return res, fmt.Errorf("failed to store matches: %w", err)
		}
		logger.Info().Int("matches", len(res.Matches)).Msg("Matches stored")
	}

	bundle, err := modelinput.Format(res.Dataset, modelinput.Options{FilterIncomplete: p.opts.FilterIncomplete})
	if err != nil {
		return res, fmt.Errorf("failed to format model input: %w", err)
	}
	res.Bundle = bundle
	res.Summary = modelinput.Summarize(bundle)
	logSummary(logger, res.Summary)

	if p.opts.ModelInputPath != "" {
		if err := modelinput.WriteFile(p.opts.ModelInputPath, bundle); err != nil {
			return res, fmt.Errorf("failed to write model input: %w", err)
		}
		logger.Info().Str("path", p.opts.ModelInputPath).Int("games", bundle.Data.NGames).Msg("Model input written")
	}

	return res, scraped.Err()
}

// FormatFile builds a model bundle from a saved match file
func FormatFile(inPath, outPath string, opts modelinput.Options, logger zerolog.Logger) (*modelinput.Bundle, error) {
	matches, err := storage.ReadMatches(inPath)
	if err != nil {
		return nil, err
	}

	bundle, err := modelinput.Format(matches, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", inPath, err)
	}
	logSummary(logger, modelinput.Summarize(bundle))

	if err := modelinput.WriteFile(outPath, bundle); err != nil {
		return nil, err
	}

	logger.Info().
		Str("in", inPath).
		Str("out", outPath).
		Int("matches", len(matches)).
		Int("games", bundle.Data.NGames).
		Int("teams", bundle.Data.NTeams).
		Msg("Model input written")

	return bundle, nil
}

// ReshapeFile writes the team/opponent view of a saved match file
func ReshapeFile(inPath, outPath string, logger zerolog.Logger) ([]models.TeamGameRecord, error) {
	matches, err := storage.ReadMatches(inPath)
	if err != nil {
		return nil, err
	}

	games := etl.Reshape(matches)
	if err := storage.WriteTeamGames(outPath, games); err != nil {
		return nil, err
	}

	logger.Info().
		Str("in", inPath).
		Str("out", outPath).
		Int("matches", len(matches)).
		Int("team_games", len(games)).
		Msg("Team game table written")

	return games, nil
}

// MatchLister reads stored matches back
type MatchLister interface {
	ListBySeasons(ctx context.Context, seasons []int, leagues []models.League) ([]models.MatchRecord, error)
}

// FormatStored builds a model bundle from matches already in the database
func FormatStored(ctx context.Context, lister MatchLister, rc scraper.RunConfig, outPath string, opts modelinput.Options, logger zerolog.Logger) (*modelinput.Bundle, error) {
	matches, err := lister.ListBySeasons(ctx, rc.Seasons, rc.Leagues)
	if err != nil {
		return nil, err
	}

	bundle, err := modelinput.Format(matches, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to format stored matches: %w", err)
	}
	logSummary(logger, modelinput.Summarize(bundle))

	if err := modelinput.WriteFile(outPath, bundle); err != nil {
		return nil, err
	}

	logger.Info().
		Str("out", outPath).
		Int("matches", len(matches)).
		Int("games", bundle.Data.NGames).
		Msg("Model input written from database")

	return bundle, nil
}

func logSummary(logger zerolog.Logger, s modelinput.Summary) {
	logger.Info().
		Int("games", s.Games).
		Float64("mean_home_goals", s.MeanHomeGoals).
		Float64("mean_away_goals", s.MeanAwayGoals).
		Float64("mean_home_xg", s.MeanHomeXG).
		Float64("mean_away_xg", s.MeanAwayXG).
		Float64("home_win_percent", s.HomeWinPercent).
		Msg("Model input summary")

	for league, ls := range s.Leagues {
		logger.Debug().
			Str("league", league).
			Int("games", ls.Games).
			Float64("mean_goals", ls.MeanGoals).
			Float64("stddev_goals", ls.StdDevGoals).
			Float64("mean_xg", ls.MeanXG).
			Float64("stddev_xg", ls.StdDevXG).
			Msg("League baseline")
	}
}
