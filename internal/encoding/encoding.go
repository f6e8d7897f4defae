// Package encoding assigns stable integer codes to teams, leagues and seasons.
// Codes are positions in the sorted label set, so the same input set always
// yields the same codes regardless of scrape order.
package encoding

import (
	"cmp"
	"slices"

	"efl_xg/ingestion/internal/models"
)

// UnknownCode is returned for labels outside the encoding
const UnknownCode = -1

// Domain names a categorical dimension of the model
type Domain string

const (
	Teams   Domain = "teams"
	Leagues Domain = "leagues"
	Seasons Domain = "seasons"
)

// Encoding maps sorted distinct labels to zero-based codes
type Encoding[T cmp.Ordered] struct {
	Domain Domain
	Labels []T
	index  map[T]int
}

// NewEncoding builds an encoding from any collection of labels.
// Labels are copied, sorted and de-duplicated.
func NewEncoding[T cmp.Ordered](domain Domain, labels []T) *Encoding[T] {
	sorted := slices.Clone(labels)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	index := make(map[T]int, len(sorted))
	for i, l := range sorted {
		index[l] = i
	}

	return &Encoding[T]{
		Domain: domain,
		Labels: sorted,
		index:  index,
	}
}

// Len returns the number of distinct labels
func (e *Encoding[T]) Len() int {
	return len(e.Labels)
}

// Code returns the code for a label, or UnknownCode
func (e *Encoding[T]) Code(label T) int {
	if code, ok := e.index[label]; ok {
		return code
	}
	return UnknownCode
}

// Codes encodes a column of labels
func (e *Encoding[T]) Codes(labels []T) []int {
	codes := make([]int, len(labels))
	for i, l := range labels {
		codes[i] = e.Code(l)
	}
	return codes
}

// Decode returns the label for a code
func (e *Encoding[T]) Decode(code int) (T, bool) {
	if code < 0 || code >= len(e.Labels) {
		var zero T
		return zero, false
	}
	return e.Labels[code], true
}

// EncodeTeams encodes the union of home and away teams.
// A team that only ever appears as the visitor still gets a code.
func EncodeTeams(matches []models.MatchRecord) *Encoding[string] {
	teams := make([]string, 0, 2*len(matches))
	for _, m := range matches {
		teams = append(teams, m.HomeTeam, m.AwayTeam)
	}
	return NewEncoding(Teams, teams)
}

// EncodeLeagues encodes distinct league names lexicographically
func EncodeLeagues(matches []models.MatchRecord) *Encoding[string] {
	return NewEncoding(Leagues, LeagueColumn(matches))
}

// EncodeSeasons encodes distinct season start years numerically
func EncodeSeasons(matches []models.MatchRecord) *Encoding[int] {
	return NewEncoding(Seasons, SeasonColumn(matches))
}

// HomeTeamColumn extracts home team names in row order
func HomeTeamColumn(matches []models.MatchRecord) []string {
	col := make([]string, len(matches))
	for i, m := range matches {
		col[i] = m.HomeTeam
	}
	return col
}

// AwayTeamColumn extracts away team names in row order
func AwayTeamColumn(matches []models.MatchRecord) []string {
	col := make([]string, len(matches))
	for i, m := range matches {
		col[i] = m.AwayTeam
	}
	return col
}

// LeagueColumn extracts league names in row order
func LeagueColumn(matches []models.MatchRecord) []string {
	col := make([]string, len(matches))
	for i, m := range matches {
		col[i] = string(m.League)
	}
	return col
}

// SeasonColumn extracts season years in row order
func SeasonColumn(matches []models.MatchRecord) []int {
	col := make([]int, len(matches))
	for i, m := range matches {
		col[i] = m.Season
	}
	return col
}
