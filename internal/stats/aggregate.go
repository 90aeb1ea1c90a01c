package stats

import "sort"

// ExerciseProgress is the weight history for one exercise, as parallel slices
// sorted by date ascending. Several records on the same date each produce
// their own point.
type ExerciseProgress struct {
	Exercise       string    `json:"exercise"`
	Dates          []string  `json:"dates"`
	Weights        []float64 `json:"weights"`
	FormattedDates []string  `json:"formattedDates"`
}

// Len returns the number of points in the series.
func (p *ExerciseProgress) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Dates)
}

// WorkoutFrequency is the number of records logged on one date.
type WorkoutFrequency struct {
	Date          string `json:"date"`
	Count         int    `json:"count"`
	FormattedDate string `json:"formattedDate"`
}

// VolumeData is the total weight lifted (weight × sets × reps) on one date.
type VolumeData struct {
	Date          string  `json:"date"`
	Volume        float64 `json:"volume"`
	FormattedDate string  `json:"formattedDate"`
}

// ExerciseDistribution is how often one exercise appears among all records.
type ExerciseDistribution struct {
	Exercise   string  `json:"exercise"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// PersonalRecord is the heaviest logged weight for one exercise.
type PersonalRecord struct {
	Exercise      string  `json:"exercise"`
	Weight        float64 `json:"weight"`
	Date          string  `json:"date"`
	FormattedDate string  `json:"formattedDate"`
}

// Views bundles every derived view computed from one input set.
type Views struct {
	Exercises        []string               `json:"exercises"`
	ExerciseProgress *ExerciseProgress      `json:"exerciseProgress"`
	WorkoutFrequency []WorkoutFrequency     `json:"workoutFrequency"`
	VolumeData       []VolumeData           `json:"volumeData"`
	Distribution     []ExerciseDistribution `json:"exerciseDistribution"`
	PersonalRecords  []PersonalRecord       `json:"personalRecords"`
}

// EmptyViews returns a Views value with every collection empty.
func EmptyViews() *Views {
	return &Views{
		Exercises:        []string{},
		WorkoutFrequency: []WorkoutFrequency{},
		VolumeData:       []VolumeData{},
		Distribution:     []ExerciseDistribution{},
		PersonalRecords:  []PersonalRecord{},
	}
}

// Compute builds all views for records. exercise selects the progress series;
// an empty name leaves ExerciseProgress nil.
func Compute(records []Record, exercise string) *Views {
	return &Views{
		Exercises:        ExerciseList(records),
		ExerciseProgress: Progress(records, exercise),
		WorkoutFrequency: Frequency(records),
		VolumeData:       Volume(records),
		Distribution:     Distribution(records),
		PersonalRecords:  PersonalRecords(records),
	}
}

// ExerciseList returns the distinct exercise names in records, sorted
// lexicographically.
func ExerciseList(records []Record) []string {
	seen := make(map[string]bool, len(records))
	names := []string{}
	for _, r := range records {
		if seen[r.Exercise] {
			continue
		}
		seen[r.Exercise] = true
		names = append(names, r.Exercise)
	}
	sort.Strings(names)
	return names
}

// Progress returns the date-ordered weight series for exercise (exact,
// case-sensitive match), or nil when it has no records.
func Progress(records []Record, exercise string) *ExerciseProgress {
	if exercise == "" {
		return nil
	}

	var matched []Record
	for _, r := range records {
		if r.Exercise == exercise {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date < matched[j].Date
	})

	p := &ExerciseProgress{
		Exercise:       exercise,
		Dates:          make([]string, len(matched)),
		Weights:        make([]float64, len(matched)),
		FormattedDates: make([]string, len(matched)),
	}
	for i, r := range matched {
		p.Dates[i] = r.Date
		p.Weights[i] = r.Weight
		p.FormattedDates[i] = FormatDate(r.Date)
	}
	return p
}

// Frequency counts records per date, ascending by date. Dates group by exact
// string equality.
func Frequency(records []Record) []WorkoutFrequency {
	index := make(map[string]int)
	out := []WorkoutFrequency{}
	for _, r := range records {
		i, ok := index[r.Date]
		if !ok {
			i = len(out)
			index[r.Date] = i
			out = append(out, WorkoutFrequency{Date: r.Date, FormattedDate: FormatDate(r.Date)})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Volume sums weight × sets × reps per date, ascending by date. No rounding
// is applied.
func Volume(records []Record) []VolumeData {
	index := make(map[string]int)
	out := []VolumeData{}
	for _, r := range records {
		i, ok := index[r.Date]
		if !ok {
			i = len(out)
			index[r.Date] = i
			out = append(out, VolumeData{Date: r.Date, FormattedDate: FormatDate(r.Date)})
		}
		out[i].Volume += r.Volume()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Distribution counts records per exercise with each count's share of the
// total, sorted by count descending. Equal counts keep the order in which the
// exercises first appear in records.
func Distribution(records []Record) []ExerciseDistribution {
	index := make(map[string]int)
	out := []ExerciseDistribution{}
	for _, r := range records {
		i, ok := index[r.Exercise]
		if !ok {
			i = len(out)
			index[r.Exercise] = i
			out = append(out, ExerciseDistribution{Exercise: r.Exercise})
		}
		out[i].Count++
	}

	total := len(records)
	for i := range out {
		if total > 0 {
			out[i].Percentage = float64(out[i].Count) / float64(total) * 100
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// OthersLabel names the synthetic entry produced by TopDistribution.
const OthersLabel = "Others"

// TopDistribution keeps the n largest entries of dist and folds the rest into
// a single OthersLabel entry carrying their summed count and percentage. dist
// must already be sorted by count descending. The input is not modified.
func TopDistribution(dist []ExerciseDistribution, n int) []ExerciseDistribution {
	if n <= 0 || len(dist) <= n {
		out := make([]ExerciseDistribution, len(dist))
		copy(out, dist)
		return out
	}

	out := make([]ExerciseDistribution, n, n+1)
	copy(out, dist[:n])

	others := ExerciseDistribution{Exercise: OthersLabel}
	for _, d := range dist[n:] {
		others.Count += d.Count
		others.Percentage += d.Percentage
	}
	return append(out, others)
}

// PersonalRecords finds the maximum weight per exercise in a single
// left-to-right scan. A later record with an equal weight does not replace the
// stored one, so the earliest position in records wins ties. The result is
// sorted by weight descending, equal weights in first-appearance order.
func PersonalRecords(records []Record) []PersonalRecord {
	index := make(map[string]int)
	out := []PersonalRecord{}
	for _, r := range records {
		i, ok := index[r.Exercise]
		if !ok {
			index[r.Exercise] = len(out)
			out = append(out, PersonalRecord{Exercise: r.Exercise, Weight: r.Weight, Date: r.Date})
			continue
		}
		if r.Weight > out[i].Weight {
			out[i].Weight = r.Weight
			out[i].Date = r.Date
		}
	}

	for i := range out {
		out[i].FormattedDate = FormatDate(out[i].Date)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}
