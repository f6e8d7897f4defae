package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"efl_xg/ingestion/internal/models"
)

// TeamGameHeader is the column order of the team/opponent table
var TeamGameHeader = []string{
	"team", "opponent", "league", "season", "date",
	"team_score", "opponent_score", "team_xg", "opponent_xg",
	"goal_diff", "xg_diff", "is_home",
}

// WriteTeamGames writes the team/opponent view as CSV, replacing path atomically
func WriteTeamGames(path string, games []models.TeamGameRecord) error {
	return writeAtomic(path, ".team-games-*.csv", func(w io.Writer) error {
		return writeTeamGamesCSV(w, games)
	})
}

func writeTeamGamesCSV(w io.Writer, games []models.TeamGameRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TeamGameHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, g := range games {
		record := []string{
			g.Team,
			g.Opponent,
			g.League.String(),
			strconv.Itoa(g.Season),
			g.Date,
			formatInt(g.TeamScore.Int32, g.TeamScore.Valid),
			formatInt(g.OpponentScore.Int32, g.OpponentScore.Valid),
			formatFloat(g.TeamXG.Float64, g.TeamXG.Valid),
			formatFloat(g.OpponentXG.Float64, g.OpponentXG.Valid),
			formatInt(g.GoalDiff.Int32, g.GoalDiff.Valid),
			formatFloat(g.XGDiff.Float64, g.XGDiff.Valid),
			strconv.FormatBool(g.IsHome),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write %s v %s: %w", g.Team, g.Opponent, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
