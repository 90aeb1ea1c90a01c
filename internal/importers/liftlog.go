package importers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// liftlogHeader is the column layout of LiftLog's own CSV export.
var liftlogHeader = []string{"date", "exercise", "sets", "reps", "weight", "notes"}

// WriteLiftLogCSV writes records in LiftLog's export layout, readable again
// by ParseLiftLogCSV.
func WriteLiftLogCSV(w io.Writer, records []ParsedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(liftlogHeader); err != nil {
		return fmt.Errorf("importers: write liftlog csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date,
			r.Exercise,
			strconv.Itoa(r.Sets),
			strconv.Itoa(r.Reps),
			strconv.FormatFloat(r.Weight, 'f', -1, 64),
			r.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("importers: write liftlog csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("importers: flush liftlog csv: %w", err)
	}
	return nil
}

// ParseLiftLogCSV parses a LiftLog CSV export. Rows are returned as-is;
// validation happens when they are stored.
func ParseLiftLogCSV(r io.Reader) (*ParsedFile, error) {
	rows, idx, err := readCSV(r, "liftlog", liftlogHeader[:5]...)
	if err != nil {
		return nil, err
	}

	pf := &ParsedFile{Format: FormatLiftLogCSV}
	seen := make(map[string]bool)
	for i, row := range rows {
		sets, errS := strconv.Atoi(colVal(row, idx, "sets"))
		reps, errR := strconv.Atoi(colVal(row, idx, "reps"))
		weight, errW := strconv.ParseFloat(colVal(row, idx, "weight"), 64)
		if errS != nil || errR != nil || errW != nil {
			return nil, fmt.Errorf("importers: liftlog csv row %d: sets, reps and weight must be numbers", i+2)
		}

		rec := ParsedRecord{
			Date:     colVal(row, idx, "date"),
			Exercise: colVal(row, idx, "exercise"),
			Sets:     sets,
			Reps:     reps,
			Weight:   weight,
			Notes:    colVal(row, idx, "notes"),
		}
		if rec.Exercise != "" {
			pf.addExercise(seen, rec.Exercise)
		}
		pf.Records = append(pf.Records, rec)
	}
	return pf, nil
}
