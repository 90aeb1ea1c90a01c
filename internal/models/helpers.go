package models

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/carpenike/liftlog/internal/stats"
)

// ErrNotFound is returned when a query finds no matching row.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput is returned when caller-supplied values fail validation.
var ErrInvalidInput = errors.New("invalid input")

// isUniqueViolation checks if a SQLite error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && (errContains(err, "UNIQUE constraint failed") || errContains(err, "constraint failed: UNIQUE"))
}

// errContains checks whether an error's message contains the given substring.
func errContains(err error, substr string) bool {
	return err != nil && strings.Contains(err.Error(), substr)
}

// normalizeDate trims any time suffix from a date string (e.g. "2025-01-01T00:00:00Z" → "2025-01-01").
func normalizeDate(d string) string {
	if len(d) >= 10 {
		return d[:10]
	}
	return d
}

// parseDate accepts a YYYY-MM-DD date, tolerating a trailing time component,
// and returns it in canonical form.
func parseDate(d string) (string, bool) {
	d = normalizeDate(strings.TrimSpace(d))
	t, err := time.Parse(stats.DateLayout, d)
	if err != nil {
		return "", false
	}
	return t.Format(stats.DateLayout), true
}

// nullString maps blank text to NULL.
func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
