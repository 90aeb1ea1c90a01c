package models

import (
	"database/sql"
	"time"

	"github.com/carpenike/liftlog/internal/stats"
)

// DashboardStats is everything the dashboard shows at a glance.
type DashboardStats struct {
	TotalWorkouts     int
	WorkoutsThisMonth int
	LatestWeight      sql.NullFloat64
	WeightChange      float64
	RecentWorkouts    []*Workout
	Weeks             []*WeeklyActivity
	Streak            int
}

// GetDashboardStats gathers the dashboard summary for a user as of now.
func GetDashboardStats(db *sql.DB, userID int64, now time.Time) (*DashboardStats, error) {
	ds := &DashboardStats{}

	var err error
	if ds.TotalWorkouts, err = CountWorkouts(db, userID, "", ""); err != nil {
		return nil, err
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if ds.WorkoutsThisMonth, err = CountWorkouts(db, userID, monthStart.Format(stats.DateLayout), ""); err != nil {
		return nil, err
	}

	summary, err := MetricsSummary(db, userID)
	if err != nil {
		return nil, err
	}
	ds.LatestWeight = summary.LatestWeight
	ds.WeightChange = summary.WeightChange

	if ds.RecentWorkouts, err = RecentWorkouts(db, userID, 5); err != nil {
		return nil, err
	}

	if ds.Weeks, err = WeeklyActivities(db, userID, now, 8); err != nil {
		return nil, err
	}
	ds.Streak = CurrentStreak(ds.Weeks)
	return ds, nil
}
