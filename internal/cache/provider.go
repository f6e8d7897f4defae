package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"efl_xg/ingestion/internal/metrics"
	"efl_xg/ingestion/internal/models"

	"github.com/rs/zerolog"
)

// RowProvider is the upstream source of fixture rows
type RowProvider interface {
	FetchFixtures(ctx context.Context, league models.League, season int) ([]models.RawRow, error)
}

// TTLs controls how long scraped rows are kept
type TTLs struct {
	// Current applies to the season still being played
	Current time.Duration
	// Past applies to finished seasons; zero keeps them forever
	Past time.Duration
	// CurrentSeason is the start year of the season in progress
	CurrentSeason int
}

// CachedProvider serves fixture rows from the store before asking upstream.
// Cache failures are logged and never fail a fetch.
type CachedProvider struct {
	next   RowProvider
	store  Store
	ttls   TTLs
	logger zerolog.Logger
}

// NewCachedProvider wraps next with a read-through cache
func NewCachedProvider(next RowProvider, store Store, ttls TTLs, logger zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		store:  store,
		ttls:   ttls,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// Key returns the cache key for a league season
func Key(league models.League, season int) string {
	return fmt.Sprintf("efl:fixtures:%s:%d", league.Slug(), season)
}

func (p *CachedProvider) FetchFixtures(ctx context.Context, league models.League, season int) ([]models.RawRow, error) {
	key := Key(league, season)

	raw, ok, err := p.store.Get(ctx, key)
	switch {
	case err != nil:
		p.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, fetching upstream")
	case ok:
		var rows []models.RawRow
		if err := json.Unmarshal(raw, &rows); err == nil {
			metrics.RecordCacheHit()
			p.logger.Debug().Str("key", key).Int("rows", len(rows)).Msg("Cache hit")
			return rows, nil
		}
		p.logger.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	}
	metrics.RecordCacheMiss()

	rows, err := p.next.FetchFixtures(ctx, league, season)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(rows)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode rows for cache")
		return rows, nil
	}
	if err := p.store.Set(ctx, key, encoded, p.ttl(season)); err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}

	return rows, nil
}

func (p *CachedProvider) ttl(season int) time.Duration {
	if season >= p.ttls.CurrentSeason {
		return p.ttls.Current
	}
	return p.ttls.Past
}
