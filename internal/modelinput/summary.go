package modelinput

import (
	"github.com/montanaflynn/stats"
)

// LeagueSummary holds per-team-per-game scoring baselines for one league
type LeagueSummary struct {
	Games       int     `json:"games"`
	MeanGoals   float64 `json:"mean_goals"`
	StdDevGoals float64 `json:"stddev_goals"`
	MeanXG      float64 `json:"mean_xg"`
	StdDevXG    float64 `json:"stddev_xg"`
}

// Summary is a sanity report over a bundle, logged after formatting
type Summary struct {
	Games          int                      `json:"games"`
	MeanHomeGoals  float64                  `json:"mean_home_goals"`
	MeanAwayGoals  float64                  `json:"mean_away_goals"`
	MeanHomeXG     float64                  `json:"mean_home_xg"`
	MeanAwayXG     float64                  `json:"mean_away_xg"`
	GoalsXGCorr    float64                  `json:"goals_xg_correlation"`
	HomeWinPercent float64                  `json:"home_win_percent"`
	Leagues        map[string]LeagueSummary `json:"leagues,omitempty"`
}

// Summarize computes descriptive statistics. An empty bundle gives a zero Summary.
func Summarize(b *Bundle) Summary {
	d := b.Data
	s := Summary{Games: d.NGames}
	if d.NGames == 0 {
		return s
	}

	homeGoals := stats.LoadRawData(d.HomeGoals)
	awayGoals := stats.LoadRawData(d.AwayGoals)
	homeXG := stats.Float64Data(d.HomeXG)
	awayXG := stats.Float64Data(d.AwayXG)

	s.MeanHomeGoals, _ = stats.Mean(homeGoals)
	s.MeanAwayGoals, _ = stats.Mean(awayGoals)
	s.MeanHomeXG, _ = stats.Mean(homeXG)
	s.MeanAwayXG, _ = stats.Mean(awayXG)

	totalGoals := make(stats.Float64Data, d.NGames)
	totalXG := make(stats.Float64Data, d.NGames)
	wins := 0
	for i := 0; i < d.NGames; i++ {
		totalGoals[i] = homeGoals[i] + awayGoals[i]
		totalXG[i] = homeXG[i] + awayXG[i]
		if d.HomeGoals[i] > d.AwayGoals[i] {
			wins++
		}
	}

	// Correlation errors on zero variance; leave it at zero then.
	if corr, err := stats.Correlation(totalGoals, totalXG); err == nil {
		s.GoalsXGCorr = corr
	}
	s.HomeWinPercent, _ = stats.Round(100*float64(wins)/float64(d.NGames), 1)

	s.Leagues = make(map[string]LeagueSummary, d.NLeagues)
	for code, name := range b.Coords.Leagues {
		var goals, xg stats.Float64Data
		games := 0
		for i, lc := range d.LeagueCode {
			if lc != code {
				continue
			}
			games++
			goals = append(goals, homeGoals[i], awayGoals[i])
			xg = append(xg, homeXG[i], awayXG[i])
		}
		if games == 0 {
			continue
		}

		ls := LeagueSummary{Games: games}
		ls.MeanGoals, _ = stats.Mean(goals)
		ls.StdDevGoals, _ = stats.StandardDeviation(goals)
		ls.MeanXG, _ = stats.Mean(xg)
		ls.StdDevXG, _ = stats.StandardDeviation(xg)
		s.Leagues[name] = ls
	}

	return s
}
