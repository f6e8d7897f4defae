package pipeline

import (
	"context"
	"strconv"

	"efl_xg/ingestion/internal/cache"
	"efl_xg/ingestion/internal/client"
	"efl_xg/ingestion/internal/config"
	"efl_xg/ingestion/internal/etl"
	"efl_xg/ingestion/internal/repository"
	"efl_xg/ingestion/internal/scraper"

	"github.com/rs/zerolog"
)

// Components are the long-lived pieces built from configuration
type Components struct {
	Pipeline *Pipeline
	DB       *repository.Database
	Cache    *cache.RedisCache
}

// Close releases database and cache connections
func (c *Components) Close() {
	if c.Cache != nil {
		c.Cache.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

// FromConfig wires client, cache, orchestrator and store. Redis is optional:
// a failed connection is logged and the run continues uncached. A configured
// database that cannot be reached is an error.
func FromConfig(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Components, error) {
	comps := &Components{}

	var provider scraper.RowProvider = client.NewClient(client.Config{
		BaseURL:           cfg.FBRefBaseURL,
		UserAgent:         cfg.FBRefUserAgent,
		Timeout:           cfg.FBRefTimeout,
		RequestsPerMinute: cfg.FBRefRequestsPerMinute,
		MaxRetries:        cfg.FBRefMaxRetries,
		RetryDelay:        cfg.FBRefRetryDelay,
	}, logger)
	logger.Info().Str("base_url", cfg.FBRefBaseURL).Msg("FBRef client initialized")

	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Host:     cfg.RedisHost,
			Port:     strconv.Itoa(cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			comps.Cache = redisCache
			provider = cache.NewCachedProvider(provider, redisCache, cache.TTLs{
				Current:       cfg.CacheTTL,
				CurrentSeason: cfg.CurrentSeason,
			}, logger)
			logger.Info().Msg("Redis cache connected")
		}
	}

	var store MatchStore
	if cfg.DatabaseEnabled {
		db, err := OpenDatabase(ctx, cfg, logger)
		if err != nil {
			comps.Close()
			return nil, err
		}
		comps.DB = db
		store = db.Matches
	}

	orchestrator := scraper.NewOrchestrator(
		provider,
		etl.NewCleaner(logger, cfg.StrictRows),
		scraper.ClockSleeper{},
		cfg.FailurePolicy(),
		logger,
	)

	comps.Pipeline = New(orchestrator, store, Options{
		PersistToFile:    cfg.PersistToFile,
		MatchDataPath:    cfg.MatchDataPath,
		ModelInputPath:   cfg.ModelInputPath,
		FilterIncomplete: cfg.FilterIncomplete,
		MergeExisting:    cfg.MergeMatchData,
	}, logger)

	return comps, nil
}

// OpenDatabase connects to Postgres and creates the matches table if needed
func OpenDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Database, error) {
	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Matches.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
