package models

import "strings"

// League is an English Football League competition name as shown on FBRef
type League string

const (
	PremierLeague League = "Premier League"
	Championship  League = "Championship"
	LeagueOne     League = "League One"
	LeagueTwo     League = "League Two"
)

// EnglishLeagues is the allow-list of leagues the scraper accepts
var EnglishLeagues = []League{PremierLeague, Championship, LeagueOne, LeagueTwo}

// LeaguesWithXG are the leagues FBRef publishes xG for
var LeaguesWithXG = []League{PremierLeague, Championship}

// fbrefLeagueIDs maps leagues to FBRef competition IDs
var fbrefLeagueIDs = map[League]int{
	PremierLeague: 9,
	Championship:  10,
	LeagueOne:     15,
	LeagueTwo:     16,
}

// FBRefID returns the FBRef competition ID for the league
func (l League) FBRefID() (int, bool) {
	id, ok := fbrefLeagueIDs[l]
	return id, ok
}

// IsValid returns true if the league is in the allow-list
func (l League) IsValid() bool {
	_, ok := fbrefLeagueIDs[l]
	return ok
}

// Slug returns the hyphenated name used in FBRef URLs
func (l League) Slug() string {
	return strings.ReplaceAll(string(l), " ", "-")
}

func (l League) String() string {
	return string(l)
}
