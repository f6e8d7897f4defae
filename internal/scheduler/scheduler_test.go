package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"efl_xg/ingestion/internal/models"
	"efl_xg/ingestion/internal/pipeline"
	"efl_xg/ingestion/internal/scraper"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls    int
	syncType string
	got      scraper.RunConfig
	res      *pipeline.Result
	err      error
}

func (f *fakeRunner) Run(_ context.Context, syncType string, rc scraper.RunConfig) (*pipeline.Result, error) {
	f.calls++
	f.syncType = syncType
	f.got = rc
	return f.res, f.err
}

func refreshConfig() scraper.RunConfig {
	return scraper.RunConfig{
		Seasons: []int{2024},
		Leagues: []models.League{models.PremierLeague, models.Championship},
		Sleep:   10 * time.Second,
	}
}

func TestScheduler_InvalidCron(t *testing.T) {
	s := NewScheduler("not a cron", refreshConfig(), &fakeRunner{}, zerolog.Nop())

	err := s.Start(context.Background())
	assert.Error(t, err, "Invalid cron expression should be rejected")
}

func TestScheduler_StartStop(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler("0 4 * * *", refreshConfig(), runner, zerolog.Nop())

	require.NoError(t, s.Start(context.Background()))
	s.Stop()

	assert.Zero(t, runner.calls, "Nothing should run before the schedule fires")
}

func TestScheduler_RefreshNow(t *testing.T) {
	runner := &fakeRunner{res: &pipeline.Result{}}
	s := NewScheduler("0 4 * * *", refreshConfig(), runner, zerolog.Nop())

	require.NoError(t, s.RefreshNow(context.Background()))
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, "nightly", runner.syncType)
	assert.Equal(t, refreshConfig(), runner.got)
}

func TestScheduler_RefreshToleratesPairFailures(t *testing.T) {
	runner := &fakeRunner{
		res: &pipeline.Result{},
		err: &scraper.BatchError{
			Failures: []scraper.PairFailure{{Season: 2024, League: models.Championship, Kind: scraper.KindFetch, Err: errors.New("503")}},
			Total:    2,
		},
	}
	s := NewScheduler("0 4 * * *", refreshConfig(), runner, zerolog.Nop())

	assert.NoError(t, s.RefreshNow(context.Background()))
}

func TestScheduler_RefreshError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("database down")}
	s := NewScheduler("0 4 * * *", refreshConfig(), runner, zerolog.Nop())

	assert.Error(t, s.RefreshNow(context.Background()))
}
