package etl

import (
	"errors"
	"testing"

	"efl_xg/ingestion/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(home, away, score, date, homeXG, awayXG string) models.RawRow {
	return models.RawRow{
		models.ColHomeTeam: home,
		models.ColAwayTeam: away,
		models.ColScore:    score,
		models.ColDate:     date,
		models.ColHomeXG:   homeXG,
		models.ColAwayXG:   awayXG,
	}
}

func TestCleaner_Clean(t *testing.T) {
	cleaner := NewCleaner(zerolog.Nop(), false)

	rows := []models.RawRow{
		row("Arsenal", "Chelsea", "2-1", "2024-08-10", "1.8", "0.9"),
		row("", "", "", "", "", ""),
	}

	matches, err := cleaner.Clean(rows, models.PremierLeague, 2024)
	require.NoError(t, err)
	require.Len(t, matches, 1, "Spacer row should be dropped")

	m := matches[0]
	assert.Equal(t, "Arsenal", m.HomeTeam)
	assert.Equal(t, "Chelsea", m.AwayTeam)
	assert.Equal(t, models.PremierLeague, m.League)
	assert.Equal(t, 2024, m.Season)
	assert.Equal(t, "2024-08-10", m.Date)
	assert.Equal(t, models.Int32(2), m.HomeGoals)
	assert.Equal(t, models.Int32(1), m.AwayGoals)
	assert.Equal(t, models.Float64(1.8), m.HomeXG)
	assert.Equal(t, models.Float64(0.9), m.AwayXG)
}

func TestCleaner_DropsRowsMissingEitherTeam(t *testing.T) {
	cleaner := NewCleaner(zerolog.Nop(), false)

	rows := []models.RawRow{
		row("Leeds United", "Burnley", "1-0", "2024-08-10", "1.2", "0.4"),
		row("Leeds United", "", "", "", "", ""),
		row("", "Burnley", "", "", "", ""),
		row("Sunderland", "Sheffield Weds", "2-2", "2024-08-11", "1.1", "1.4"),
		row("Watford", "Millwall", "0-1", "2024-08-12", "0.7", "1.0"),
	}

	matches, err := cleaner.Clean(rows, models.Championship, 2024)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "Leeds United", matches[0].HomeTeam, "Surviving rows should keep input order")
	assert.Equal(t, "Sunderland", matches[1].HomeTeam)
	assert.Equal(t, "Watford", matches[2].HomeTeam)
}

func TestCleaner_FutureFixturesKeepNulls(t *testing.T) {
	cleaner := NewCleaner(zerolog.Nop(), false)

	rows := []models.RawRow{
		row("Everton", "Fulham", "", "2025-05-25", "", ""),
	}

	matches, err := cleaner.Clean(rows, models.PremierLeague, 2024)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.False(t, matches[0].HomeGoals.Valid, "Unplayed fixture should have null goals")
	assert.False(t, matches[0].AwayGoals.Valid)
	assert.False(t, matches[0].HomeXG.Valid, "Unplayed fixture should have null xG")
	assert.False(t, matches[0].AwayXG.Valid)
}

func TestCleaner_SkipsMalformedRows(t *testing.T) {
	cleaner := NewCleaner(zerolog.Nop(), false)

	rows := []models.RawRow{
		row("Arsenal", "Chelsea", "abc", "2024-08-10", "1.8", "0.9"),
		row("Brentford", "Wolves", "3-1", "2024-08-11", "bad", "0.9"),
		row("Luton Town", "Burnley", "1-4", "2024-08-12", "0.5", "2.2"),
	}

	matches, err := cleaner.Clean(rows, models.PremierLeague, 2024)
	require.NoError(t, err, "Non-strict mode should not fail the batch")
	require.Len(t, matches, 1)
	assert.Equal(t, "Luton Town", matches[0].HomeTeam)
}

func TestCleaner_StrictModeFails(t *testing.T) {
	cleaner := NewCleaner(zerolog.Nop(), true)

	rows := []models.RawRow{
		row("Arsenal", "Chelsea", "abc", "2024-08-10", "1.8", "0.9"),
	}

	_, err := cleaner.Clean(rows, models.PremierLeague, 2024)
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr), "Strict failure should carry the ParseError")
}

func TestCleaner_MissingColumnIsSchemaError(t *testing.T) {
	cleaner := NewCleaner(zerolog.Nop(), false)

	bad := row("Arsenal", "Chelsea", "2-1", "2024-08-10", "1.8", "0.9")
	delete(bad, models.ColAwayXG)

	_, err := cleaner.Clean([]models.RawRow{bad}, models.PremierLeague, 2024)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, models.ColAwayXG, schemaErr.Column)
	assert.Equal(t, models.PremierLeague, schemaErr.League)
}

func TestCleaner_DoesNotMutateInput(t *testing.T) {
	cleaner := NewCleaner(zerolog.Nop(), false)

	rows := []models.RawRow{row(" Arsenal ", "Chelsea", "2-1", "2024-08-10", "1.8", "0.9")}
	_, err := cleaner.Clean(rows, models.PremierLeague, 2024)
	require.NoError(t, err)

	assert.Equal(t, " Arsenal ", rows[0][models.ColHomeTeam])
}
