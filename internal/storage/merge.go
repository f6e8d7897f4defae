package storage

import (
	"errors"
	"io/fs"

	"efl_xg/ingestion/internal/models"
)

// matchKey identifies a fixture across scrapes
type matchKey struct {
	league models.League
	season int
	home   string
	away   string
}

func keyOf(m models.MatchRecord) matchKey {
	return matchKey{league: m.League, season: m.Season, home: m.HomeTeam, away: m.AwayTeam}
}

// MergeMatches overlays fresh onto existing keyed on league, season and the
// two teams. A fresh record replaces the existing one in place; records not
// seen before are appended in fresh order. Neither input is modified.
func MergeMatches(existing, fresh []models.MatchRecord) []models.MatchRecord {
	merged := make([]models.MatchRecord, 0, len(existing)+len(fresh))
	pos := make(map[matchKey]int, len(existing)+len(fresh))

	for _, m := range existing {
		k := keyOf(m)
		if i, ok := pos[k]; ok {
			merged[i] = m
			continue
		}
		pos[k] = len(merged)
		merged = append(merged, m)
	}
	for _, m := range fresh {
		k := keyOf(m)
		if i, ok := pos[k]; ok {
			merged[i] = m
			continue
		}
		pos[k] = len(merged)
		merged = append(merged, m)
	}

	return merged
}

// MergeIntoFile merges fresh into the matches saved at path and writes the
// result back. A missing file is treated as empty.
func MergeIntoFile(path string, fresh []models.MatchRecord) ([]models.MatchRecord, error) {
	existing, err := ReadMatches(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	merged := MergeMatches(existing, fresh)
	if err := WriteMatches(path, merged); err != nil {
		return nil, err
	}
	return merged, nil
}
