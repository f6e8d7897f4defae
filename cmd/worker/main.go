package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"efl_xg/ingestion/internal/config"
	"efl_xg/ingestion/internal/metrics"
	"efl_xg/ingestion/internal/pipeline"
	"efl_xg/ingestion/internal/scheduler"
	"efl_xg/ingestion/internal/scraper"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.MustLoad()
	logger := setupLogger(cfg)

	logger.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("Starting EFL xG ingestion worker")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	comps, err := pipeline.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize pipeline")
	}
	defer comps.Close()

	if cfg.EnableMetrics {
		srv := startMetricsServer(cfg.MetricsPort, comps, logger)
		defer srv.Shutdown(context.Background())
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Nightly refresh covers only the season still being played
	refresh := scraper.RunConfig{
		Seasons: []int{cfg.CurrentSeason},
		Leagues: cfg.LeagueList(),
		Sleep:   cfg.RunConfig().Sleep,
	}
	sched := scheduler.NewScheduler(cfg.NightlyRefreshCron, refresh, comps.Pipeline, logger)

	// Backfill every configured season once on startup, before the
	// scheduler can start a refresh of its own
	if cfg.InitialSyncEnabled {
		logger.Info().Msg("Running initial data sync...")
		if err := runInitialSync(ctx, comps.Pipeline, cfg.RunConfig()); err != nil {
			logger.Error().Err(err).Msg("Initial sync failed, continuing anyway...")
		} else {
			logger.Info().Msg("Initial sync completed successfully")
		}
	}

	if cfg.EnableScheduler {
		if cfg.PersistToFile && !cfg.MergeMatchData {
			logger.Warn().Msg("MERGE_MATCH_DATA is off: each nightly refresh will replace match data with the current season only")
		}
		logger.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	logger.Info().Msg("Shutting down scheduler...")
	if cfg.EnableScheduler {
		sched.Stop()
	}

	logger.Info().Msg("Worker shutdown complete")
}

// setupLogger builds the root logger
func setupLogger(cfg *config.Config) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		// Pretty console logging in development
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	level := zerolog.InfoLevel
	if parsedLevel, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		level = parsedLevel
	}

	logger = logger.Level(level).With().Timestamp().Str("service", "efl-xg-worker").Logger()
	logger.Info().
		Str("level", level.String()).
		Msg("Logger initialized")

	return logger
}

// runInitialSync scrapes all configured seasons and rebuilds the model input
func runInitialSync(ctx context.Context, p *pipeline.Pipeline, rc scraper.RunConfig) error {
	res, err := p.Run(ctx, "initial", rc)

	var batchErr *scraper.BatchError
	if errors.As(err, &batchErr) && res != nil && res.Bundle != nil {
		// Partial data is still usable; failed pairs are retried by the next sync
		return nil
	}
	return err
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int, comps *pipeline.Components, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{"status": "healthy"}
		code := http.StatusOK

		if comps.DB != nil {
			if err := comps.DB.Health(r.Context()); err != nil {
				status["status"] = "unhealthy"
				status["error"] = err.Error()
				code = http.StatusServiceUnavailable
			} else {
				status["database"] = comps.DB.PoolStats()
				if n, err := comps.DB.Matches.Count(r.Context()); err == nil {
					status["matches"] = n
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Int("port", port).Msg("Starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return srv
}
