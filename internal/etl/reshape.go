package etl

import (
	"database/sql"

	"efl_xg/ingestion/internal/models"
)

// Reshape expands each home/away match into two team/opponent records,
// home perspective first.
func Reshape(matches []models.MatchRecord) []models.TeamGameRecord {
	games := make([]models.TeamGameRecord, 0, 2*len(matches))
	for _, m := range matches {
		games = append(games,
			teamGame(m.HomeTeam, m.AwayTeam, m.HomeGoals, m.AwayGoals, m.HomeXG, m.AwayXG, m, true),
			teamGame(m.AwayTeam, m.HomeTeam, m.AwayGoals, m.HomeGoals, m.AwayXG, m.HomeXG, m, false),
		)
	}
	return games
}

func teamGame(team, opponent string, score, oppScore sql.NullInt32, xg, oppXG sql.NullFloat64, m models.MatchRecord, home bool) models.TeamGameRecord {
	return models.TeamGameRecord{
		Team:          team,
		Opponent:      opponent,
		League:        m.League,
		Season:        m.Season,
		Date:          m.Date,
		TeamScore:     score,
		OpponentScore: oppScore,
		TeamXG:        xg,
		OpponentXG:    oppXG,
		GoalDiff:      models.SubInt32(score, oppScore),
		XGDiff:        models.SubFloat64(xg, oppXG),
		IsHome:        home,
	}
}
