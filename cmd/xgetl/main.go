// Command xgetl scrapes EFL fixtures and xG from FBRef and builds the
// model input bundle.
//
// Usage:
//
//	xgetl scrape --first-season 2017
//	xgetl scrape --seasons 2023,2024 --leagues "Premier League"
//	xgetl format --in match_data.csv --out model_input.json
//	xgetl format --from-db --out model_input.json
//	xgetl index --bundle model_input.json --fixtures fixtures.csv
//	xgetl reshape --in match_data.csv --out team_games.csv
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"efl_xg/ingestion/internal/config"
	"efl_xg/ingestion/internal/modelinput"
	"efl_xg/ingestion/internal/pipeline"
	"efl_xg/ingestion/internal/scraper"
	"efl_xg/ingestion/internal/storage"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

func main() {
	root := &cobra.Command{
		Use:           "xgetl",
		Short:         "EFL xG scrape and model-input ETL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			lvl, err := zerolog.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			logger = logger.Level(lvl)
			return nil
		},
	}
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(scrapeCmd())
	root.AddCommand(formatCmd())
	root.AddCommand(indexCmd())
	root.AddCommand(reshapeCmd())

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// scrape command
// --------------------------------------------------------------------------

func scrapeCmd() *cobra.Command {
	var (
		firstSeason int
		seasons     []int
		leagues     []string
		sleep       float64
		noFile      bool
		noFilter    bool
		strict      bool
		failFast    bool
		replace     bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape every league season and write match data and model input",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("first-season") {
				cfg.FirstSeason = firstSeason
				cfg.Seasons = nil
			}
			if flags.Changed("seasons") {
				cfg.Seasons = seasons
			}
			if flags.Changed("leagues") {
				cfg.Leagues = leagues
			}
			if flags.Changed("sleep") {
				cfg.SleepSeconds = sleep
			}
			if noFile {
				cfg.PersistToFile = false
			}
			if noFilter {
				cfg.FilterIncomplete = false
			}
			if strict {
				cfg.StrictRows = true
			}
			if failFast {
				cfg.FailFast = true
			}
			if replace {
				cfg.MergeMatchData = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			comps, err := pipeline.FromConfig(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Close()

			res, err := comps.Pipeline.Run(ctx, "manual", cfg.RunConfig())

			var batchErr *scraper.BatchError
			if errors.As(err, &batchErr) && res != nil {
				for _, f := range batchErr.Failures {
					logger.Error().
						Err(f.Err).
						Str("league", f.League.String()).
						Int("season", f.Season).
						Str("kind", string(f.Kind)).
						Msg("League season failed")
				}
			}
			return err
		},
	}

	cmd.Flags().IntVar(&firstSeason, "first-season", 0, "First season start year; scrapes through CURRENT_SEASON")
	cmd.Flags().IntSliceVar(&seasons, "seasons", nil, "Explicit season start years (overrides --first-season)")
	cmd.Flags().StringSliceVar(&leagues, "leagues", nil, "Leagues to scrape")
	cmd.Flags().Float64Var(&sleep, "sleep", 0, "Seconds to wait before each request")
	cmd.Flags().BoolVar(&noFile, "no-file", false, "Do not write the match data CSV")
	cmd.Flags().BoolVar(&noFilter, "keep-incomplete", false, "Fail instead of dropping matches without goals or xG")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail a league season on the first unparseable row")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Abort the batch on the first failed league season")
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite the match data file instead of merging into it")
	return cmd
}

// --------------------------------------------------------------------------
// format command
// --------------------------------------------------------------------------

func formatCmd() *cobra.Command {
	var (
		in, out          string
		filterIncomplete bool
		fromDB           bool
	)

	cmd := &cobra.Command{
		Use:   "format",
		Short: "Build the model input bundle from a match data CSV or the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := modelinput.Options{FilterIncomplete: filterIncomplete}
			if !fromDB {
				_, err := pipeline.FormatFile(in, out, opts, logger)
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.DatabaseEnabled {
				return errors.New("--from-db requires DATABASE_ENABLED")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := pipeline.OpenDatabase(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			_, err = pipeline.FormatStored(ctx, db.Matches, cfg.RunConfig(), out, opts, logger)
			return err
		},
	}

	cmd.Flags().StringVar(&in, "in", "match_data.csv", "Match data CSV")
	cmd.Flags().StringVar(&out, "out", "model_input.json", "Model input JSON")
	cmd.Flags().BoolVar(&filterIncomplete, "filter-incomplete", true, "Drop matches without goals or xG")
	cmd.Flags().BoolVar(&fromDB, "from-db", false, "Read matches for the configured seasons and leagues from Postgres")
	return cmd
}

// --------------------------------------------------------------------------
// index command
// --------------------------------------------------------------------------

func indexCmd() *cobra.Command {
	var bundlePath, fixturesPath, out string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Encode fixtures with the coordinates of an existing bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := modelinput.ReadFile(bundlePath)
			if err != nil {
				return err
			}
			fixtures, err := storage.ReadMatches(fixturesPath)
			if err != nil {
				return err
			}

			idx := modelinput.IndexFixtures(fixtures, bundle.Coords)
			if idx.Unknown() {
				logger.Warn().Msg("Some fixtures reference teams, leagues or seasons the model has not seen")
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(idx)
		},
	}

	cmd.Flags().StringVar(&bundlePath, "bundle", "model_input.json", "Fitted model input bundle")
	cmd.Flags().StringVar(&fixturesPath, "fixtures", "fixtures.csv", "Fixtures CSV in match data format")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

// --------------------------------------------------------------------------
// reshape command
// --------------------------------------------------------------------------

func reshapeCmd() *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "reshape",
		Short: "Write the team/opponent view of a match data CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := pipeline.ReshapeFile(in, out, logger)
			return err
		},
	}

	cmd.Flags().StringVar(&in, "in", "match_data.csv", "Match data CSV")
	cmd.Flags().StringVar(&out, "out", "team_games.csv", "Team game CSV")
	return cmd
}
