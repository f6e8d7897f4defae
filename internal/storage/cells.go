package storage

import (
	"database/sql"
	"strconv"

	"efl_xg/ingestion/internal/models"
)

func formatInt(v int32, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.FormatInt(int64(v), 10)
}

func formatFloat(v float64, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseInt(s string) (sql.NullInt32, error) {
	if s == "" {
		return sql.NullInt32{}, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return sql.NullInt32{}, err
	}
	return models.Int32(int32(v)), nil
}

func parseFloat(s string) (sql.NullFloat64, error) {
	if s == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	return models.Float64(v), nil
}
