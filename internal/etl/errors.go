package etl

import (
	"fmt"

	"efl_xg/ingestion/internal/models"
)

// ParseError reports a score or xG cell whose text cannot be interpreted
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("cannot parse %s %q", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError reports a source page whose structure no longer matches the
// expected fixtures table, e.g. a required column is absent.
type SchemaError struct {
	League models.League
	Season int
	Column string
	Detail string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema mismatch for %s %d", e.League, e.Season)
	if e.Column != "" {
		msg += fmt.Sprintf(": missing column %q", e.Column)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
