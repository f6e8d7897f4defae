package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"efl_xg/ingestion/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

type countingProvider struct {
	calls int
	rows  []models.RawRow
	err   error
}

func (c *countingProvider) FetchFixtures(context.Context, models.League, int) ([]models.RawRow, error) {
	c.calls++
	return c.rows, c.err
}

func sampleRows() []models.RawRow {
	return []models.RawRow{{
		models.ColHomeTeam: "Arsenal",
		models.ColAwayTeam: "Chelsea",
		models.ColScore:    "2–1",
		models.ColDate:     "2024-08-10",
		models.ColHomeXG:   "1.8",
		models.ColAwayXG:   "0.9",
	}}
}

func ttls() TTLs {
	return TTLs{Current: time.Hour, Past: 0, CurrentSeason: 2024}
}

func TestCachedProvider_ReadThrough(t *testing.T) {
	store := newMemoryStore()
	upstream := &countingProvider{rows: sampleRows()}
	p := NewCachedProvider(upstream, store, ttls(), zerolog.Nop())

	first, err := p.FetchFixtures(context.Background(), models.PremierLeague, 2024)
	require.NoError(t, err)
	second, err := p.FetchFixtures(context.Background(), models.PremierLeague, 2024)
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.calls, "Second fetch should be served from cache")
	assert.Equal(t, first, second)
	assert.Equal(t, sampleRows(), second)
}

func TestCachedProvider_TTLBySeason(t *testing.T) {
	store := newMemoryStore()
	p := NewCachedProvider(&countingProvider{rows: sampleRows()}, store, ttls(), zerolog.Nop())

	_, err := p.FetchFixtures(context.Background(), models.Championship, 2024)
	require.NoError(t, err)
	_, err = p.FetchFixtures(context.Background(), models.Championship, 2019)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, store.ttls[Key(models.Championship, 2024)])
	assert.Equal(t, time.Duration(0), store.ttls[Key(models.Championship, 2019)], "Finished seasons should not expire")
}

func TestCachedProvider_UpstreamErrorNotCached(t *testing.T) {
	store := newMemoryStore()
	upstream := &countingProvider{err: errors.New("503")}
	p := NewCachedProvider(upstream, store, ttls(), zerolog.Nop())

	_, err := p.FetchFixtures(context.Background(), models.PremierLeague, 2024)
	require.Error(t, err)
	assert.Empty(t, store.data)
}

func TestCachedProvider_StoreFailuresIgnored(t *testing.T) {
	store := newMemoryStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	upstream := &countingProvider{rows: sampleRows()}
	p := NewCachedProvider(upstream, store, ttls(), zerolog.Nop())

	rows, err := p.FetchFixtures(context.Background(), models.PremierLeague, 2024)
	require.NoError(t, err, "Cache outage should not fail the fetch")
	assert.Equal(t, sampleRows(), rows)
	assert.Equal(t, 1, upstream.calls)
}

func TestCachedProvider_CorruptEntryRefetched(t *testing.T) {
	store := newMemoryStore()
	store.data[Key(models.PremierLeague, 2024)] = []byte("not json")
	upstream := &countingProvider{rows: sampleRows()}
	p := NewCachedProvider(upstream, store, ttls(), zerolog.Nop())

	rows, err := p.FetchFixtures(context.Background(), models.PremierLeague, 2024)
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)
	assert.Equal(t, 1, upstream.calls)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "efl:fixtures:League-One:2021", Key(models.LeagueOne, 2021))
}
