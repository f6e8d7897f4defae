package modelinput

import (
	"errors"
	"fmt"

	"efl_xg/ingestion/internal/encoding"
	"efl_xg/ingestion/internal/models"
)

// ErrIncompleteMatch is returned when an unfiltered dataset holds a match
// without goals or xG
var ErrIncompleteMatch = errors.New("match has no recorded goals or xG")

// Options controls bundle construction
type Options struct {
	// FilterIncomplete drops matches with any null goals/xG before encoding
	FilterIncomplete bool
}

// Format encodes a match dataset into the model bundle
func Format(matches []models.MatchRecord, opts Options) (*Bundle, error) {
	if opts.FilterIncomplete {
		matches = CompleteMatches(matches)
	} else {
		for i := range matches {
			if !matches[i].IsComplete() {
				m := matches[i]
				return nil, fmt.Errorf("row %d %s v %s (%s %d): %w",
					i, m.HomeTeam, m.AwayTeam, m.League, m.Season, ErrIncompleteMatch)
			}
		}
	}

	teams := encoding.EncodeTeams(matches)
	seasons := encoding.EncodeSeasons(matches)
	leagues := encoding.EncodeLeagues(matches)

	n := len(matches)
	data := Data{
		NTeams:       teams.Len(),
		NGames:       n,
		NSeasons:     seasons.Len(),
		NLeagues:     leagues.Len(),
		Season:       seasons.Codes(encoding.SeasonColumn(matches)),
		HomeTeamCode: teams.Codes(encoding.HomeTeamColumn(matches)),
		AwayTeamCode: teams.Codes(encoding.AwayTeamColumn(matches)),
		LeagueCode:   leagues.Codes(encoding.LeagueColumn(matches)),
		HomeGoals:    make([]int, n),
		AwayGoals:    make([]int, n),
		HomeXG:       make([]float64, n),
		AwayXG:       make([]float64, n),
		Home:         ones(n),
		Away:         ones(n),
	}

	for i, m := range matches {
		data.HomeGoals[i] = int(m.HomeGoals.Int32)
		data.AwayGoals[i] = int(m.AwayGoals.Int32)
		data.HomeXG[i] = m.HomeXG.Float64
		data.AwayXG[i] = m.AwayXG.Float64
	}

	bundle := &Bundle{
		Data: data,
		Coords: Coords{
			Teams:   nonNil(teams.Labels),
			Seasons: nonNil(seasons.Labels),
			Leagues: nonNil(leagues.Labels),
		},
	}

	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model bundle: %w", err)
	}

	return bundle, nil
}

// CompleteMatches returns the matches with goals and xG for both sides
func CompleteMatches(matches []models.MatchRecord) []models.MatchRecord {
	complete := make([]models.MatchRecord, 0, len(matches))
	for _, m := range matches {
		if m.IsComplete() {
			complete = append(complete, m)
		}
	}
	return complete
}

func ones(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

// nonNil keeps empty coords as [] rather than null in JSON
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
