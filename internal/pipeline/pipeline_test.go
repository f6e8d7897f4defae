package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"efl_xg/ingestion/internal/config"
	"efl_xg/ingestion/internal/modelinput"
	"efl_xg/ingestion/internal/models"
	"efl_xg/ingestion/internal/scraper"
	"efl_xg/ingestion/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	result *scraper.RunResult
	err    error
	got    scraper.RunConfig
}

func (f *fakeScraper) Run(_ context.Context, rc scraper.RunConfig) (*scraper.RunResult, error) {
	f.got = rc
	return f.result, f.err
}

type fakeStore struct {
	stored []models.MatchRecord
	err    error
}

func (f *fakeStore) UpsertBatch(_ context.Context, matches []models.MatchRecord) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, matches...)
	return nil
}

func scrapedMatches() []models.MatchRecord {
	return []models.MatchRecord{
		{
			HomeTeam: "Arsenal", AwayTeam: "Chelsea", League: models.PremierLeague, Season: 2024, Date: "2024-08-10",
			HomeGoals: models.Int32(2), AwayGoals: models.Int32(1), HomeXG: models.Float64(1.8), AwayXG: models.Float64(0.9),
		},
		{
			HomeTeam: "Leeds United", AwayTeam: "Burnley", League: models.Championship, Season: 2024, Date: "2024-08-11",
			HomeGoals: models.Int32(0), AwayGoals: models.Int32(0), HomeXG: models.Float64(1.1), AwayXG: models.Float64(0.7),
		},
		{HomeTeam: "Everton", AwayTeam: "Fulham", League: models.PremierLeague, Season: 2024, Date: "2025-05-25"},
	}
}

func runConfig() scraper.RunConfig {
	return scraper.RunConfig{
		Seasons: []int{2024},
		Leagues: []models.League{models.PremierLeague, models.Championship},
		Sleep:   time.Second,
	}
}

func TestPipeline_Run(t *testing.T) {
	dir := t.TempDir()
	s := &fakeScraper{result: &scraper.RunResult{Matches: scrapedMatches()}}
	store := &fakeStore{}
	opts := Options{
		PersistToFile:    true,
		MatchDataPath:    filepath.Join(dir, "match_data.csv"),
		ModelInputPath:   filepath.Join(dir, "model_input.json"),
		FilterIncomplete: true,
	}

	res, err := New(s, store, opts, zerolog.Nop()).Run(context.Background(), "manual", runConfig())
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err, "Run ID should be a UUID")
	assert.Equal(t, runConfig(), s.got)

	assert.Len(t, res.Matches, 3)
	assert.Len(t, store.stored, 3, "All scraped matches should be stored, including unplayed")

	onDisk, err := storage.ReadMatches(opts.MatchDataPath)
	require.NoError(t, err)
	assert.Len(t, onDisk, 3)

	require.NotNil(t, res.Bundle)
	assert.Equal(t, 2, res.Bundle.Data.NGames, "Unplayed fixture should be filtered from the bundle")
	assert.Equal(t, 2, res.Summary.Games)

	bundle, err := modelinput.ReadFile(opts.ModelInputPath)
	require.NoError(t, err)
	assert.Equal(t, res.Bundle, bundle)
}

func TestPipeline_NoPersistence(t *testing.T) {
	dir := t.TempDir()
	s := &fakeScraper{result: &scraper.RunResult{Matches: scrapedMatches()}}
	opts := Options{
		MatchDataPath:    filepath.Join(dir, "match_data.csv"),
		FilterIncomplete: true,
	}

	res, err := New(s, nil, opts, zerolog.Nop()).Run(context.Background(), "manual", runConfig())
	require.NoError(t, err)
	assert.NotNil(t, res.Bundle)

	_, err = storage.ReadMatches(opts.MatchDataPath)
	assert.Error(t, err, "CSV should not be written when persistence is off")
}

func TestPipeline_PartialFailure(t *testing.T) {
	failure := scraper.PairFailure{Season: 2024, League: models.Championship, Kind: scraper.KindFetch, Err: errors.New("503")}
	s := &fakeScraper{result: &scraper.RunResult{
		Matches:  scrapedMatches()[:1],
		Failures: []scraper.PairFailure{failure},
	}}

	res, err := New(s, nil, Options{FilterIncomplete: true}, zerolog.Nop()).Run(context.Background(), "manual", runConfig())
	require.Error(t, err)

	var batchErr *scraper.BatchError
	require.True(t, errors.As(err, &batchErr), "Pair failures should surface as a BatchError")
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Bundle.Data.NGames, "Bundle should still be built from the pairs that succeeded")
	assert.Len(t, res.Failures, 1)
}

func TestPipeline_ScrapeError(t *testing.T) {
	s := &fakeScraper{err: context.Canceled}

	res, err := New(s, nil, Options{}, zerolog.Nop()).Run(context.Background(), "manual", runConfig())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPipeline_StoreError(t *testing.T) {
	s := &fakeScraper{result: &scraper.RunResult{Matches: scrapedMatches()}}
	store := &fakeStore{err: errors.New("connection refused")}

	_, err := New(s, store, Options{FilterIncomplete: true}, zerolog.Nop()).Run(context.Background(), "manual", runConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store matches")
}

func TestPipeline_IncompleteWithoutFilter(t *testing.T) {
	s := &fakeScraper{result: &scraper.RunResult{Matches: scrapedMatches()}}

	_, err := New(s, nil, Options{}, zerolog.Nop()).Run(context.Background(), "manual", runConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, modelinput.ErrIncompleteMatch))
}

func TestFormatFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "match_data.csv")
	out := filepath.Join(dir, "model_input.json")
	require.NoError(t, storage.WriteMatches(in, scrapedMatches()))

	bundle, err := FormatFile(in, out, modelinput.Options{FilterIncomplete: true}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, bundle.Data.NGames)
	assert.Equal(t, []string{"Arsenal", "Burnley", "Chelsea", "Leeds United"}, bundle.Coords.Teams)

	loaded, err := modelinput.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, bundle, loaded)
}

func TestFormatFile_MissingInput(t *testing.T) {
	_, err := FormatFile(filepath.Join(t.TempDir(), "nope.csv"), "out.json", modelinput.Options{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestFromConfig_FileOnly(t *testing.T) {
	cfg := &config.Config{
		Leagues:          []string{"Premier League"},
		FirstSeason:      2024,
		CurrentSeason:    2024,
		FBRefBaseURL:     "http://127.0.0.1:0",
		FilterIncomplete: true,
	}
	require.NoError(t, cfg.Validate())

	comps, err := FromConfig(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer comps.Close()

	assert.NotNil(t, comps.Pipeline)
	assert.Nil(t, comps.DB, "No database should be opened unless enabled")
	assert.Nil(t, comps.Cache)
	assert.Nil(t, comps.Pipeline.store)
}

type fakeLister struct {
	matches []models.MatchRecord
	seasons []int
	leagues []models.League
}

func (f *fakeLister) ListBySeasons(_ context.Context, seasons []int, leagues []models.League) ([]models.MatchRecord, error) {
	f.seasons = seasons
	f.leagues = leagues
	return f.matches, nil
}

func TestFormatStored(t *testing.T) {
	out := filepath.Join(t.TempDir(), "model_input.json")
	lister := &fakeLister{matches: scrapedMatches()}

	bundle, err := FormatStored(context.Background(), lister, runConfig(), out, modelinput.Options{FilterIncomplete: true}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []int{2024}, lister.seasons)
	assert.Equal(t, runConfig().Leagues, lister.leagues)
	assert.Equal(t, 2, bundle.Data.NGames)

	loaded, err := modelinput.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, bundle, loaded)
}

func seasonMatches(season int) []models.MatchRecord {
	return []models.MatchRecord{
		{
			HomeTeam: "Arsenal", AwayTeam: "Chelsea", League: models.PremierLeague, Season: season,
			HomeGoals: models.Int32(1), AwayGoals: models.Int32(1), HomeXG: models.Float64(1.2), AwayXG: models.Float64(1.0),
		},
	}
}

func TestPipeline_RefreshKeepsPastSeasons(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		PersistToFile:    true,
		MatchDataPath:    filepath.Join(dir, "match_data.csv"),
		ModelInputPath:   filepath.Join(dir, "model_input.json"),
		FilterIncomplete: true,
		MergeExisting:    true,
	}

	var backfill []models.MatchRecord
	for _, season := range []int{2022, 2023, 2024} {
		backfill = append(backfill, seasonMatches(season)...)
	}
	s := &fakeScraper{result: &scraper.RunResult{Matches: backfill}}
	p := New(s, nil, opts, zerolog.Nop())

	_, err := p.Run(context.Background(), "initial", runConfig())
	require.NoError(t, err)

	refreshed := seasonMatches(2024)
	refreshed[0].HomeGoals = models.Int32(3)
	s.result = &scraper.RunResult{Matches: refreshed}

	res, err := p.Run(context.Background(), "nightly", runConfig())
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
	assert.Len(t, res.Dataset, 3)

	onDisk, err := storage.ReadMatches(opts.MatchDataPath)
	require.NoError(t, err)
	require.Len(t, onDisk, 3, "Refreshing one season should keep the others on disk")
	assert.Equal(t, models.Int32(3), onDisk[2].HomeGoals, "Refreshed result should replace the stored one")

	bundle, err := modelinput.ReadFile(opts.ModelInputPath)
	require.NoError(t, err)
	assert.Equal(t, 3, bundle.Data.NGames)
	assert.Equal(t, []int{2022, 2023, 2024}, bundle.Coords.Seasons)
}

func TestPipeline_ReplaceWithoutMerge(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		PersistToFile:    true,
		MatchDataPath:    filepath.Join(dir, "match_data.csv"),
		FilterIncomplete: true,
	}
	require.NoError(t, storage.WriteMatches(opts.MatchDataPath, seasonMatches(2022)))

	s := &fakeScraper{result: &scraper.RunResult{Matches: seasonMatches(2024)}}
	_, err := New(s, nil, opts, zerolog.Nop()).Run(context.Background(), "manual", runConfig())
	require.NoError(t, err)

	onDisk, err := storage.ReadMatches(opts.MatchDataPath)
	require.NoError(t, err)
	require.Len(t, onDisk, 1)
	assert.Equal(t, 2024, onDisk[0].Season)
}

// blockingScraper tracks how many runs are in flight at once
type blockingScraper struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	release  chan struct{}
	started  chan struct{}
}

func (b *blockingScraper) Run(_ context.Context, _ scraper.RunConfig) (*scraper.RunResult, error) {
	b.mu.Lock()
	b.inFlight++
	b.peak = max(b.peak, b.inFlight)
	b.mu.Unlock()

	b.started <- struct{}{}
	<-b.release

	b.mu.Lock()
	b.inFlight--
	b.mu.Unlock()
	return &scraper.RunResult{Matches: scrapedMatches()}, nil
}

func TestPipeline_RunsAreSerialised(t *testing.T) {
	b := &blockingScraper{release: make(chan struct{}), started: make(chan struct{}, 2)}
	p := New(b, nil, Options{FilterIncomplete: true}, zerolog.Nop())

	var wg sync.WaitGroup
	for _, syncType := range []string{"initial", "nightly"} {
		wg.Add(1)
		go func(syncType string) {
			defer wg.Done()
			_, err := p.Run(context.Background(), syncType, runConfig())
			assert.NoError(t, err)
		}(syncType)
	}

	<-b.started
	select {
	case <-b.started:
		t.Fatal("Second run should not start while the first is scraping")
	case <-time.After(50 * time.Millisecond):
	}

	b.release <- struct{}{}
	<-b.started
	b.release <- struct{}{}
	wg.Wait()

	assert.Equal(t, 1, b.peak, "Only one scrape should run at a time")
}

func TestReshapeFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "match_data.csv")
	out := filepath.Join(dir, "team_games.csv")
	require.NoError(t, storage.WriteMatches(in, scrapedMatches()))

	games, err := ReshapeFile(in, out, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, games, 6, "Each match should yield a home and an away row")
	assert.Equal(t, "Arsenal", games[0].Team)
	assert.True(t, games[0].IsHome)
	assert.Equal(t, "Chelsea", games[1].Team)
	assert.Equal(t, models.Int32(-1), games[1].GoalDiff)

	_, err = os.Stat(out)
	assert.NoError(t, err, "Team game table should be written")
}
