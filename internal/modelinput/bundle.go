package modelinput

import "fmt"

// Data is the per-match array dictionary consumed by the rating model.
// Field names are the model's variable names and must not change.
type Data struct {
	NTeams       int       `json:"n_teams"`
	NGames       int       `json:"n_games"`
	NSeasons     int       `json:"n_seasons"`
	NLeagues     int       `json:"n_leagues"`
	Season       []int     `json:"season"`
	HomeTeamCode []int     `json:"home_team_code"`
	AwayTeamCode []int     `json:"away_team_code"`
	LeagueCode   []int     `json:"league_code"`
	HomeGoals    []int     `json:"home_goals"`
	AwayGoals    []int     `json:"away_goals"`
	HomeXG       []float64 `json:"home_xg"`
	AwayXG       []float64 `json:"away_xg"`
	Home         []int     `json:"home"`
	Away         []int     `json:"away"`
}

// Coords names the model's categorical dimensions
type Coords struct {
	Teams   []string `json:"teams"`
	Seasons []int    `json:"seasons"`
	Leagues []string `json:"leagues"`
}

// Bundle is the complete model input
type Bundle struct {
	Data   Data   `json:"data"`
	Coords Coords `json:"coords"`
}

// Validate checks array alignment and index ranges
func (b *Bundle) Validate() error {
	d := b.Data

	if d.NTeams != len(b.Coords.Teams) {
		return fmt.Errorf("n_teams=%d but %d team coords", d.NTeams, len(b.Coords.Teams))
	}
	if d.NSeasons != len(b.Coords.Seasons) {
		return fmt.Errorf("n_seasons=%d but %d season coords", d.NSeasons, len(b.Coords.Seasons))
	}
	if d.NLeagues != len(b.Coords.Leagues) {
		return fmt.Errorf("n_leagues=%d but %d league coords", d.NLeagues, len(b.Coords.Leagues))
	}

	lengths := []struct {
		name string
		n    int
	}{
		{"season", len(d.Season)},
		{"home_team_code", len(d.HomeTeamCode)},
		{"away_team_code", len(d.AwayTeamCode)},
		{"league_code", len(d.LeagueCode)},
		{"home_goals", len(d.HomeGoals)},
		{"away_goals", len(d.AwayGoals)},
		{"home_xg", len(d.HomeXG)},
		{"away_xg", len(d.AwayXG)},
		{"home", len(d.Home)},
		{"away", len(d.Away)},
	}
	for _, l := range lengths {
		if l.n != d.NGames {
			return fmt.Errorf("%s has length %d, want n_games=%d", l.name, l.n, d.NGames)
		}
	}

	if err := checkRange("season", d.Season, d.NSeasons); err != nil {
		return err
	}
	if err := checkRange("home_team_code", d.HomeTeamCode, d.NTeams); err != nil {
		return err
	}
	if err := checkRange("away_team_code", d.AwayTeamCode, d.NTeams); err != nil {
		return err
	}
	return checkRange("league_code", d.LeagueCode, d.NLeagues)
}

func checkRange(name string, codes []int, size int) error {
	for i, c := range codes {
		if c < 0 || c >= size {
			return fmt.Errorf("%s[%d]=%d out of range [0, %d)", name, i, c, size)
		}
	}
	return nil
}
