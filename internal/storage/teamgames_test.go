package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"efl_xg/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTeamGames(t *testing.T) {
	games := []models.TeamGameRecord{
		{
			Team: "Arsenal", Opponent: "Chelsea", League: models.PremierLeague, Season: 2024, Date: "2024-08-10",
			TeamScore: models.Int32(2), OpponentScore: models.Int32(1),
			TeamXG: models.Float64(1.8), OpponentXG: models.Float64(0.9),
			GoalDiff: models.Int32(1), XGDiff: models.Float64(0.9), IsHome: true,
		},
		{
			Team: "Chelsea", Opponent: "Arsenal", League: models.PremierLeague, Season: 2024, Date: "2025-05-25",
		},
	}

	path := filepath.Join(t.TempDir(), "out", "team_games.csv")
	require.NoError(t, WriteTeamGames(path, games))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, TeamGameHeader, records[0])
	assert.Equal(t, []string{"Arsenal", "Chelsea", "Premier League", "2024", "2024-08-10", "2", "1", "1.8", "0.9", "1", "0.9", "true"}, records[1])
	assert.Equal(t, []string{"Chelsea", "Arsenal", "Premier League", "2024", "2025-05-25", "", "", "", "", "", "", "false"}, records[2], "Unplayed fixture should have empty cells")

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".team-games-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
