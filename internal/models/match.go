package models

import (
	"database/sql"
	"time"
)

// Raw fixture columns scraped from the FBRef schedule table
const (
	ColHomeTeam = "home_team"
	ColAwayTeam = "away_team"
	ColScore    = "score"
	ColDate     = "date"
	ColHomeXG   = "home_xg"
	ColAwayXG   = "away_xg"
)

// FixtureColumns lists the data-stat columns read from each fixture row, in order
var FixtureColumns = []string{ColHomeTeam, ColAwayTeam, ColScore, ColDate, ColHomeXG, ColAwayXG}

// RawRow is one scraped fixture row keyed by column name
type RawRow map[string]string

// MatchRecord is the canonical cleaned match
type MatchRecord struct {
	ID        int             `db:"id"`
	HomeTeam  string          `db:"home_team"`
	AwayTeam  string          `db:"away_team"`
	League    League          `db:"league"`
	Season    int             `db:"season"` // start year
	Date      string          `db:"match_date"`
	HomeGoals sql.NullInt32   `db:"home_score"`
	AwayGoals sql.NullInt32   `db:"away_score"`
	HomeXG    sql.NullFloat64 `db:"home_xg"`
	AwayXG    sql.NullFloat64 `db:"away_xg"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsComplete returns true if goals and xG are recorded for both sides
func (m *MatchRecord) IsComplete() bool {
	return m.HomeGoals.Valid && m.AwayGoals.Valid && m.HomeXG.Valid && m.AwayXG.Valid
}

// IsPlayed returns true once a score is known
func (m *MatchRecord) IsPlayed() bool {
	return m.HomeGoals.Valid && m.AwayGoals.Valid
}

// TeamGameRecord is one side's view of a match
type TeamGameRecord struct {
	Team          string
	Opponent      string
	League        League
	Season        int
	Date          string
	TeamScore     sql.NullInt32
	OpponentScore sql.NullInt32
	TeamXG        sql.NullFloat64
	OpponentXG    sql.NullFloat64
	GoalDiff      sql.NullInt32
	XGDiff        sql.NullFloat64
	IsHome        bool
}
