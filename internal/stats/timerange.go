package stats

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeRange is returned when a time range symbol is not recognized.
var ErrInvalidTimeRange = errors.New("invalid time range")

// TimeRange is a symbolic window bounding which records are considered.
type TimeRange string

const (
	RangeOneMonth    TimeRange = "1m"
	RangeThreeMonths TimeRange = "3m"
	RangeSixMonths   TimeRange = "6m"
	RangeOneYear     TimeRange = "1y"
	RangeAll         TimeRange = "all"
)

// DefaultTimeRange is the range selected when none is given.
const DefaultTimeRange = RangeThreeMonths

// TimeRanges lists the selectable ranges in display order.
var TimeRanges = []TimeRange{RangeOneMonth, RangeThreeMonths, RangeSixMonths, RangeOneYear, RangeAll}

// ParseTimeRange validates a range symbol. An empty string yields
// DefaultTimeRange; any other unknown symbol is an error rather than a silent
// fallback to all time.
func ParseTimeRange(s string) (TimeRange, error) {
	if s == "" {
		return DefaultTimeRange, nil
	}
	for _, r := range TimeRanges {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("stats: parse time range %q: %w", s, ErrInvalidTimeRange)
}

// Label returns the human-readable name of the range.
func (r TimeRange) Label() string {
	switch r {
	case RangeOneMonth:
		return "Last month"
	case RangeThreeMonths:
		return "Last 3 months"
	case RangeSixMonths:
		return "Last 6 months"
	case RangeOneYear:
		return "Last year"
	case RangeAll:
		return "All time"
	}
	return string(r)
}

// Start returns the inclusive lower bound of the range relative to now, at
// midnight on now's calendar day. Months and years are subtracted with
// calendar arithmetic; when the day does not exist in the target month the
// date normalizes forward (Mar 31 minus one month is Mar 2 or 3). The second
// return value is false for RangeAll, which is unbounded.
func (r TimeRange) Start(now time.Time) (time.Time, bool) {
	var years, months int
	switch r {
	case RangeOneMonth:
		months = 1
	case RangeThreeMonths:
		months = 3
	case RangeSixMonths:
		months = 6
	case RangeOneYear:
		years = 1
	default:
		return time.Time{}, false
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(-years, -months, 0), true
}

// StartDate is Start formatted as YYYY-MM-DD, or "" when unbounded.
func (r TimeRange) StartDate(now time.Time) string {
	t, ok := r.Start(now)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}
