// Package stats turns a user's logged workout records into the statistical
// views shown on the stats page: the distinct exercise list, per-exercise
// weight progress, workouts per day, volume per day, exercise distribution and
// personal records.
//
// Every aggregation function is pure: it reads the slice it is given, never
// modifies it, and returns fresh values. Controller adds the filter state and
// fetch lifecycle on top.
package stats

import "time"

// DateLayout is the canonical calendar-date layout used for record dates.
const DateLayout = "2006-01-02"

// DisplayDateLayout is the human-readable layout used for formatted dates.
const DisplayDateLayout = "Jan 2, 2006"

// Record is one logged exercise performance.
type Record struct {
	Date     string  `json:"date"`
	Exercise string  `json:"exercise"`
	Sets     int     `json:"sets"`
	Reps     int     `json:"reps"`
	Weight   float64 `json:"weight"`
}

// Volume returns weight × sets × reps for the record.
func (r Record) Volume() float64 {
	return r.Weight * float64(r.Sets) * float64(r.Reps)
}

// FormatDate renders a YYYY-MM-DD date for display ("Jan 2, 2006"). A value
// that does not parse is returned unchanged.
func FormatDate(date string) string {
	d := date
	if len(d) > len(DateLayout) {
		d = d[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, d)
	if err != nil {
		return date
	}
	return t.Format(DisplayDateLayout)
}
