package importers

import (
	"io"
	"strconv"
	"strings"
	"time"
)

// Strong CSV columns (as exported by the Strong app).
// Date,Workout Name,Duration,Exercise Name,Set Order,Weight,Reps,Distance,Seconds,Notes,Workout Notes,RPE
const (
	strongColDate         = "Date"
	strongColExerciseName = "Exercise Name"
	strongColWeight       = "Weight"
	strongColReps         = "Reps"
	strongColNotes        = "Notes"
)

// ParseStrongCSV parses workout data from a Strong app CSV export. Strong
// writes one row per set; consecutive identical sets collapse into one
// record. Weights are taken as-is in the user's unit. Timed and
// distance-only sets have no reps and are skipped.
func ParseStrongCSV(r io.Reader) (*ParsedFile, error) {
	rows, idx, err := readCSV(r, "strong", strongColDate, strongColExerciseName, strongColReps)
	if err != nil {
		return nil, err
	}

	pf := &ParsedFile{Format: FormatStrongCSV}
	seen := make(map[string]bool)
	var sets []setRow

	for _, row := range rows {
		date, ok := parseStrongDate(colVal(row, idx, strongColDate))
		exercise := colVal(row, idx, strongColExerciseName)
		if !ok || exercise == "" {
			pf.Skipped++
			continue
		}

		reps, _ := strconv.Atoi(colVal(row, idx, strongColReps))
		if reps <= 0 {
			pf.Skipped++
			continue
		}

		var weight float64
		if v := colVal(row, idx, strongColWeight); v != "" {
			if w, err := strconv.ParseFloat(v, 64); err == nil && w > 0 {
				weight = w
			}
		}

		pf.addExercise(seen, exercise)
		sets = append(sets, setRow{
			date:     date,
			exercise: exercise,
			weight:   weight,
			reps:     reps,
			notes:    colVal(row, idx, strongColNotes),
		})
	}

	pf.Records = collapseSets(sets)
	return pf, nil
}

// parseStrongDate parses the date formats commonly seen in Strong and Hevy
// exports ("2026-02-15 14:30:00", "2026 Feb 15", "15 Feb 2026, 14:30") and
// returns the calendar date as YYYY-MM-DD.
func parseStrongDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"2006 Jan 02",
		"2006 Jan 2",
		"Jan 2, 2006",
		"2 Jan 2006, 15:04",
		"01/02/2006",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}
