// Package importers reads workout history exported by other tracking apps
// (and by LiftLog itself) and turns it into LiftLog workout records.
package importers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"
)

// Format identifies the source of an import file.
type Format string

const (
	FormatLiftLogCSV Format = "liftlog_csv"
	FormatStrongCSV  Format = "strong_csv"
	FormatHevyCSV    Format = "hevy_csv"
)

// Label returns a human-readable name for the format.
func (f Format) Label() string {
	switch f {
	case FormatLiftLogCSV:
		return "LiftLog CSV"
	case FormatStrongCSV:
		return "Strong CSV"
	case FormatHevyCSV:
		return "Hevy CSV"
	}
	return "unknown"
}

// ParsedRecord is one exercise performance read from an import file, in the
// same shape as a logged workout.
type ParsedRecord struct {
	Date     string
	Exercise string
	Sets     int
	Reps     int
	Weight   float64
	Notes    string
}

// ParsedFile is the result of parsing an import file.
type ParsedFile struct {
	Format  Format
	Records []ParsedRecord
	// Exercises lists distinct exercise names in first-seen order.
	Exercises []string
	// Skipped counts rows that could not become a record (warm-ups,
	// timed or distance-only sets, rows without a date or exercise).
	Skipped int
}

func (pf *ParsedFile) addExercise(seen map[string]bool, name string) {
	if !seen[name] {
		seen[name] = true
		pf.Exercises = append(pf.Exercises, name)
	}
}

// DetectFormat guesses the import format from file content. It identifies
// LiftLog, Strong and Hevy CSV exports from their header row and returns ""
// when none match.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")

	firstLine := firstLineOf(trimmed)
	switch {
	case strings.HasPrefix(firstLine, strings.Join(liftlogHeader[:5], ",")):
		return FormatLiftLogCSV
	case containsAll(firstLine, "Exercise Name", "Set Order", "Weight", "Reps"):
		return FormatStrongCSV
	case containsAll(firstLine, "exercise_title", "set_index", "reps") &&
		(strings.Contains(firstLine, "weight_lbs") || strings.Contains(firstLine, "weight_kg")):
		return FormatHevyCSV
	}
	return ""
}

// Parse detects the format of data and parses it. unit is the importing
// user's weight unit, used where the source file records its own.
func Parse(data []byte, unit string) (*ParsedFile, error) {
	switch DetectFormat(data) {
	case FormatLiftLogCSV:
		return ParseLiftLogCSV(bytes.NewReader(data))
	case FormatStrongCSV:
		return ParseStrongCSV(bytes.NewReader(data))
	case FormatHevyCSV:
		return ParseHevyCSV(bytes.NewReader(data), unit)
	}
	return nil, fmt.Errorf("importers: unrecognized file format")
}

func firstLineOf(data []byte) string {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return string(data[:i])
		}
	}
	return string(data)
}

func containsAll(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// readCSV reads every row of a CSV export and indexes its header. source
// names the format in error messages.
func readCSV(r io.Reader, source string, required ...string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("importers: read %s csv: %w", source, err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("importers: %s csv has no data rows", source)
	}

	idx := make(map[string]int)
	for i, col := range records[0] {
		col = strings.TrimPrefix(col, "\ufeff")
		idx[strings.Trim(strings.TrimSpace(col), `"`)] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("importers: %s csv missing required column %q", source, col)
		}
	}
	return records[1:], idx, nil
}

// colVal safely gets a column value from a CSV row.
func colVal(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// setRow is a single set as exported by per-set trackers.
type setRow struct {
	date     string
	exercise string
	weight   float64
	reps     int
	notes    string
}

// collapseSets merges consecutive sets of the same exercise on the same date
// with identical weight and reps into one record with Sets = n. Notes of
// merged sets are joined.
func collapseSets(rows []setRow) []ParsedRecord {
	var out []ParsedRecord
	for _, s := range rows {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Date == s.date && last.Exercise == s.exercise && last.Weight == s.weight && last.Reps == s.reps {
				last.Sets++
				if s.notes != "" && !strings.Contains(last.Notes, s.notes) {
					last.Notes = strings.TrimSpace(last.Notes + " " + s.notes)
				}
				continue
			}
		}
		out = append(out, ParsedRecord{
			Date:     s.date,
			Exercise: s.exercise,
			Sets:     1,
			Reps:     s.reps,
			Weight:   s.weight,
			Notes:    s.notes,
		})
	}
	return out
}

// Weight conversion factors.
const (
	kgPerLb = 0.45359237
	lbPerKg = 1 / kgPerLb
)

// roundWeight rounds to two decimals, enough for plate math in either unit.
func roundWeight(w float64) float64 {
	return math.Round(w*100) / 100
}
