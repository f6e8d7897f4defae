package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"efl_xg/ingestion/internal/models"
)

// Header is the flat-file column order
var Header = []string{
	"home_team", "away_team", "league", "season", "date",
	"home_score", "away_score", "home_xg", "away_xg",
}

// WriteMatches writes matches as CSV, replacing path atomically.
// Nulls are written as empty cells.
func WriteMatches(path string, matches []models.MatchRecord) error {
	return writeAtomic(path, ".matches-*.csv", func(w io.Writer) error {
		return writeCSV(w, matches)
	})
}

// writeAtomic writes to a temp file in the target directory and renames it
// over path, so readers never see a partial file
func writeAtomic(path, pattern string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

func writeCSV(w io.Writer, matches []models.MatchRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, m := range matches {
		record := []string{
			m.HomeTeam,
			m.AwayTeam,
			m.League.String(),
			strconv.Itoa(m.Season),
			m.Date,
			formatInt(m.HomeGoals.Int32, m.HomeGoals.Valid),
			formatInt(m.AwayGoals.Int32, m.AwayGoals.Valid),
			formatFloat(m.HomeXG.Float64, m.HomeXG.Valid),
			formatFloat(m.AwayXG.Float64, m.AwayXG.Valid),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write %s v %s: %w", m.HomeTeam, m.AwayTeam, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadMatches loads a file written by WriteMatches
func ReadMatches(path string) ([]models.MatchRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, col := range Header {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected column %d %q, want %q", i, header[i], col)
		}
	}

	var matches []models.MatchRecord
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		m, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		matches = append(matches, m)
	}

	return matches, nil
}

func parseRecord(r []string) (models.MatchRecord, error) {
	season, err := strconv.Atoi(r[3])
	if err != nil {
		return models.MatchRecord{}, fmt.Errorf("invalid season %q: %w", r[3], err)
	}

	m := models.MatchRecord{
		HomeTeam: r[0],
		AwayTeam: r[1],
		League:   models.League(r[2]),
		Season:   season,
		Date:     r[4],
	}

	if m.HomeGoals, err = parseInt(r[5]); err != nil {
		return m, fmt.Errorf("invalid home_score: %w", err)
	}
	if m.AwayGoals, err = parseInt(r[6]); err != nil {
		return m, fmt.Errorf("invalid away_score: %w", err)
	}
	if m.HomeXG, err = parseFloat(r[7]); err != nil {
		return m, fmt.Errorf("invalid home_xg: %w", err)
	}
	if m.AwayXG, err = parseFloat(r[8]); err != nil {
		return m, fmt.Errorf("invalid away_xg: %w", err)
	}

	return m, nil
}
