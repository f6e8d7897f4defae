package models

import "database/sql"

// SubInt32 returns a - b, null if either side is null
func SubInt32(a, b sql.NullInt32) sql.NullInt32 {
	if !a.Valid || !b.Valid {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: a.Int32 - b.Int32, Valid: true}
}

// SubFloat64 returns a - b, null if either side is null
func SubFloat64(a, b sql.NullFloat64) sql.NullFloat64 {
	if !a.Valid || !b.Valid {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: a.Float64 - b.Float64, Valid: true}
}

// Int32 wraps a known value
func Int32(v int32) sql.NullInt32 {
	return sql.NullInt32{Int32: v, Valid: true}
}

// Float64 wraps a known value
func Float64(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}
