package modelinput

import (
	"efl_xg/ingestion/internal/encoding"
	"efl_xg/ingestion/internal/models"
)

// FixtureIndex holds codes for matches to be predicted, using a fitted
// bundle's coords. Unseen labels get encoding.UnknownCode.
type FixtureIndex struct {
	HomeTeamCode []int `json:"home_team_code"`
	AwayTeamCode []int `json:"away_team_code"`
	LeagueCode   []int `json:"league_code"`
	Season       []int `json:"season"`
}

// IndexFixtures applies an existing encoding to another match set
func IndexFixtures(matches []models.MatchRecord, coords Coords) FixtureIndex {
	teams := encoding.NewEncoding(encoding.Teams, coords.Teams)
	leagues := encoding.NewEncoding(encoding.Leagues, coords.Leagues)
	seasons := encoding.NewEncoding(encoding.Seasons, coords.Seasons)

	return FixtureIndex{
		HomeTeamCode: teams.Codes(encoding.HomeTeamColumn(matches)),
		AwayTeamCode: teams.Codes(encoding.AwayTeamColumn(matches)),
		LeagueCode:   leagues.Codes(encoding.LeagueColumn(matches)),
		Season:       seasons.Codes(encoding.SeasonColumn(matches)),
	}
}

// Unknown reports whether any fixture references a label the model has not seen
func (f FixtureIndex) Unknown() bool {
	for _, col := range [][]int{f.HomeTeamCode, f.AwayTeamCode, f.LeagueCode, f.Season} {
		for _, c := range col {
			if c == encoding.UnknownCode {
				return true
			}
		}
	}
	return false
}
