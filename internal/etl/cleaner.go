package etl

import (
	"fmt"
	"strings"

	"efl_xg/ingestion/internal/metrics"
	"efl_xg/ingestion/internal/models"

	"github.com/rs/zerolog"
)

// Cleaner turns scraped fixture rows into MatchRecords
type Cleaner struct {
	logger zerolog.Logger
	strict bool
}

// NewCleaner creates a cleaner. In strict mode the first unparseable row
// fails the whole call; otherwise the row is logged and skipped.
func NewCleaner(logger zerolog.Logger, strict bool) *Cleaner {
	return &Cleaner{
		logger: logger,
		strict: strict,
	}
}

// Clean filters spacer rows, parses scores and xG, and stamps league and season.
// Output order follows input order.
func (c *Cleaner) Clean(rows []models.RawRow, league models.League, season int) ([]models.MatchRecord, error) {
	for _, row := range rows {
		for _, col := range models.FixtureColumns {
			if _, ok := row[col]; !ok {
				return nil, &SchemaError{League: league, Season: season, Column: col}
			}
		}
	}

	matches := make([]models.MatchRecord, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		home := strings.TrimSpace(row[models.ColHomeTeam])
		away := strings.TrimSpace(row[models.ColAwayTeam])
		if home == "" || away == "" {
			metrics.RecordRowSkipped("spacer")
			continue
		}

		match, err := parseRow(row, home, away, league, season)
		if err != nil {
			if c.strict {
				return nil, fmt.Errorf("row %d (%s v %s): %w", i, home, away, err)
			}
			c.logger.Warn().
				Err(err).
				Int("row", i).
				Str("home", home).
				Str("away", away).
				Str("league", league.String()).
				Int("season", season).
				Msg("Skipping unparseable fixture row")
			metrics.RecordRowSkipped("parse")
			skipped++
			continue
		}

		matches = append(matches, match)
	}

	metrics.RecordRowsCleaned(league.String(), len(matches))
	c.logger.Debug().
		Str("league", league.String()).
		Int("season", season).
		Int("rows", len(rows)).
		Int("matches", len(matches)).
		Int("skipped", skipped).
		Msg("Fixture rows cleaned")

	return matches, nil
}

func parseRow(row models.RawRow, home, away string, league models.League, season int) (models.MatchRecord, error) {
	homeGoals, awayGoals, err := ParseScore(row[models.ColScore])
	if err != nil {
		return models.MatchRecord{}, err
	}
	homeXG, err := ParseXG(row[models.ColHomeXG])
	if err != nil {
		return models.MatchRecord{}, err
	}
	awayXG, err := ParseXG(row[models.ColAwayXG])
	if err != nil {
		return models.MatchRecord{}, err
	}

	return models.MatchRecord{
		HomeTeam:  home,
		AwayTeam:  away,
		League:    league,
		Season:    season,
		Date:      strings.TrimSpace(row[models.ColDate]),
		HomeGoals: homeGoals,
		AwayGoals: awayGoals,
		HomeXG:    homeXG,
		AwayXG:    awayXG,
	}, nil
}
