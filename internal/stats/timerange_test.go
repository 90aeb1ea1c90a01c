package stats

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeRange
		wantErr bool
	}{
		{"1m", RangeOneMonth, false},
		{"3m", RangeThreeMonths, false},
		{"6m", RangeSixMonths, false},
		{"1y", RangeOneYear, false},
		{"all", RangeAll, false},
		{"", DefaultTimeRange, false},
		{"2w", "", true},
		{"ALL", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTimeRange(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTimeRange) {
				t.Errorf("ParseTimeRange(%q) error = %v, want ErrInvalidTimeRange", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeRange(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeRange(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimeRangeStartDate(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	tests := []struct {
		r    TimeRange
		want string
	}{
		{RangeOneMonth, "2024-02-15"},
		{RangeThreeMonths, "2023-12-15"},
		{RangeSixMonths, "2023-09-15"},
		{RangeOneYear, "2023-03-15"},
		{RangeAll, ""},
	}
	for _, tt := range tests {
		if got := tt.r.StartDate(now); got != tt.want {
			t.Errorf("%s.StartDate = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestTimeRangeStart_Midnight(t *testing.T) {
	now := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)
	start, ok := RangeOneMonth.Start(now)
	if !ok {
		t.Fatal("expected bounded range")
	}
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("start = %v, want midnight", start)
	}
	if _, ok := RangeAll.Start(now); ok {
		t.Error("RangeAll should be unbounded")
	}
}

func TestTimeRangeStart_MonthOverflow(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	// February 31 does not exist and normalizes to March 2 in a leap year.
	if got := RangeOneMonth.StartDate(now); got != "2024-03-02" {
		t.Errorf("StartDate = %q, want 2024-03-02", got)
	}
}

func TestTimeRangeStart_InclusiveBoundary(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	records := []Record{
		{Date: "2024-02-14", Exercise: "Bench", Sets: 1, Reps: 1, Weight: 100},
		{Date: "2024-02-15", Exercise: "Bench", Sets: 1, Reps: 1, Weight: 100},
	}
	start := RangeOneMonth.StartDate(now)
	var kept []Record
	for _, r := range records {
		if r.Date >= start {
			kept = append(kept, r)
		}
	}
	if len(kept) != 1 || kept[0].Date != "2024-02-15" {
		t.Errorf("kept = %+v, want only 2024-02-15", kept)
	}
}

func TestTimeRangeLabel(t *testing.T) {
	for _, r := range TimeRanges {
		if r.Label() == "" || r.Label() == string(r) {
			t.Errorf("%q has no label", r)
		}
	}
}
