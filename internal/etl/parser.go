package etl

import (
	"database/sql"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// scorePattern matches the main-time score, skipping shootout scores in
// parentheses: "2-1", "2–1", "(4) 1-1 (2)". The shootout groups must be
// parenthesised so a two-digit home score is not split.
var scorePattern = regexp.MustCompile(`^(?:\(\d+\)\s*)?(\d+)[^\w\s](\d+)(?:\s*\(\d+\))?`)

var errNotFinite = errors.New("xg must be a finite number")

// ParseScore splits a score cell into home and away goals.
// An empty cell (unplayed fixture) yields two nulls.
func ParseScore(text string) (sql.NullInt32, sql.NullInt32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return sql.NullInt32{}, sql.NullInt32{}, nil
	}

	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return sql.NullInt32{}, sql.NullInt32{}, &ParseError{Field: "score", Value: text}
	}

	home, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil {
		return sql.NullInt32{}, sql.NullInt32{}, &ParseError{Field: "score", Value: text, Err: err}
	}
	away, err := strconv.ParseInt(m[2], 10, 32)
	if err != nil {
		return sql.NullInt32{}, sql.NullInt32{}, &ParseError{Field: "score", Value: text, Err: err}
	}

	return sql.NullInt32{Int32: int32(home), Valid: true}, sql.NullInt32{Int32: int32(away), Valid: true}, nil
}

// ParseXG parses an xG cell. An empty cell yields null.
func ParseXG(text string) (sql.NullFloat64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return sql.NullFloat64{}, nil
	}

	xg, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return sql.NullFloat64{}, &ParseError{Field: "xg", Value: text, Err: err}
	}
	if math.IsNaN(xg) || math.IsInf(xg, 0) {
		return sql.NullFloat64{}, &ParseError{Field: "xg", Value: text, Err: errNotFinite}
	}

	return sql.NullFloat64{Float64: xg, Valid: true}, nil
}
