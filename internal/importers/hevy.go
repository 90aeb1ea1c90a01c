package importers

import (
	"io"
	"strconv"
)

// Hevy CSV columns. Older exports carry weight_lbs, newer ones weight_kg.
const (
	hevyColStartTime     = "start_time"
	hevyColExerciseTitle = "exercise_title"
	hevyColSetType       = "set_type"
	hevyColWeightLbs     = "weight_lbs"
	hevyColWeightKg      = "weight_kg"
	hevyColReps          = "reps"
	hevyColExerciseNotes = "exercise_notes"
)

// ParseHevyCSV parses workout data from a Hevy app CSV export. Warm-up sets
// and sets without reps are skipped; consecutive identical working sets
// collapse into one record. Weights are converted into unit ("lbs" or "kg").
func ParseHevyCSV(r io.Reader, unit string) (*ParsedFile, error) {
	rows, idx, err := readCSV(r, "hevy", hevyColStartTime, hevyColExerciseTitle, hevyColReps)
	if err != nil {
		return nil, err
	}

	weightCol, factor := hevyColWeightLbs, 1.0
	if _, ok := idx[hevyColWeightKg]; ok {
		weightCol = hevyColWeightKg
		if unit != "kg" {
			factor = lbPerKg
		}
	} else if unit == "kg" {
		factor = kgPerLb
	}

	pf := &ParsedFile{Format: FormatHevyCSV}
	seen := make(map[string]bool)
	var sets []setRow

	for _, row := range rows {
		date, ok := parseStrongDate(colVal(row, idx, hevyColStartTime))
		exercise := colVal(row, idx, hevyColExerciseTitle)
		if !ok || exercise == "" || colVal(row, idx, hevyColSetType) == "warmup" {
			pf.Skipped++
			continue
		}

		reps, _ := strconv.Atoi(colVal(row, idx, hevyColReps))
		if reps <= 0 {
			pf.Skipped++
			continue
		}

		var weight float64
		if v := colVal(row, idx, weightCol); v != "" {
			if w, err := strconv.ParseFloat(v, 64); err == nil && w > 0 {
				weight = roundWeight(w * factor)
			}
		}

		pf.addExercise(seen, exercise)
		sets = append(sets, setRow{
			date:     date,
			exercise: exercise,
			weight:   weight,
			reps:     reps,
			notes:    colVal(row, idx, hevyColExerciseNotes),
		})
	}

	pf.Records = collapseSets(sets)
	return pf, nil
}
