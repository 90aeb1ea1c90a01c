package models

import (
	"testing"
	"time"
)

func TestGetDashboardStats(t *testing.T) {
	db := testDB(t)
	u := seedUser(t, db, "dash@example.com")
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC) // Wednesday

	seedWorkout(t, db, u.ID, "2024-02-28", "Squat", 5, 5, 200)
	seedWorkout(t, db, u.ID, "2024-03-04", "Bench Press", 5, 5, 150)
	seedWorkout(t, db, u.ID, "2024-03-11", "Deadlift", 1, 5, 300)
	seedWorkout(t, db, u.ID, "2024-03-18", "Squat", 5, 5, 205)
	seedWorkout(t, db, u.ID, "2024-03-18", "Row", 3, 10, 135)
	CreateMetric(db, u.ID, MetricInput{Date: "2024-01-01", Weight: weight(185)})
	CreateMetric(db, u.ID, MetricInput{Date: "2024-03-01", Weight: weight(182)})

	ds, err := GetDashboardStats(db, u.ID, now)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if ds.TotalWorkouts != 5 {
		t.Errorf("total = %d, want 5", ds.TotalWorkouts)
	}
	if ds.WorkoutsThisMonth != 4 {
		t.Errorf("this month = %d, want 4", ds.WorkoutsThisMonth)
	}
	if ds.LatestWeight.Float64 != 182 || ds.WeightChange != -3 {
		t.Errorf("weight = %v change = %f", ds.LatestWeight, ds.WeightChange)
	}
	if len(ds.RecentWorkouts) != 5 || ds.RecentWorkouts[0].Date != "2024-03-18" {
		t.Errorf("recent = %d", len(ds.RecentWorkouts))
	}
	if len(ds.Weeks) != 8 {
		t.Fatalf("weeks = %d, want 8", len(ds.Weeks))
	}
	current := ds.Weeks[7]
	if current.WeekStart != "2024-03-18" || current.TrainingDays != 1 || current.Workouts != 2 {
		t.Errorf("current week = %+v", current)
	}
	if ds.Streak != 4 {
		t.Errorf("streak = %d, want 4", ds.Streak)
	}
}

func TestWeeklyActivityStatus(t *testing.T) {
	tests := []struct {
		days   int
		status string
		label  string
	}{
		{0, "rest", "–"},
		{2, "light", "2d"},
		{4, "solid", "4d"},
	}
	for _, tt := range tests {
		wa := &WeeklyActivity{TrainingDays: tt.days}
		if got := wa.Status(); got != tt.status {
			t.Errorf("Status(%d) = %q, want %q", tt.days, got, tt.status)
		}
		if got := wa.Label(); got != tt.label {
			t.Errorf("Label(%d) = %q, want %q", tt.days, got, tt.label)
		}
	}
}

func TestCurrentStreak(t *testing.T) {
	w := func(days ...int) []*WeeklyActivity {
		out := make([]*WeeklyActivity, len(days))
		for i, d := range days {
			out[i] = &WeeklyActivity{TrainingDays: d}
		}
		return out
	}
	tests := []struct {
		name  string
		weeks []*WeeklyActivity
		want  int
	}{
		{"none", w(0, 0, 0), 0},
		{"all", w(1, 2, 3), 3},
		{"gap", w(3, 0, 2, 1), 2},
		{"current week not yet trained", w(1, 2, 0), 2},
	}
	for _, tt := range tests {
		if got := CurrentStreak(tt.weeks); got != tt.want {
			t.Errorf("%s: streak = %d, want %d", tt.name, got, tt.want)
		}
	}
}
