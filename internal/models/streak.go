package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/carpenike/liftlog/internal/stats"
)

// WeeklyActivity summarizes one Monday–Sunday week of training.
type WeeklyActivity struct {
	WeekStart    string // Monday (YYYY-MM-DD)
	WeekEnd      string // Sunday (YYYY-MM-DD)
	TrainingDays int    // distinct dates with at least one workout
	Workouts     int
}

// Status classifies the week for display: "rest", "light" or "solid".
func (wa *WeeklyActivity) Status() string {
	switch {
	case wa.TrainingDays == 0:
		return "rest"
	case wa.TrainingDays < 3:
		return "light"
	}
	return "solid"
}

// Label returns a short display label (e.g. "3d").
func (wa *WeeklyActivity) Label() string {
	if wa.TrainingDays == 0 {
		return "–"
	}
	return fmt.Sprintf("%dd", wa.TrainingDays)
}

// mondayOf returns midnight on the Monday of t's week.
func mondayOf(t time.Time) time.Time {
	weekday := t.Weekday()
	if weekday == time.Sunday {
		weekday = 7
	}
	d := t.AddDate(0, 0, -int(weekday-time.Monday))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// WeeklyActivities returns the last `weeks` weeks of activity, oldest first,
// including the current (possibly incomplete) week.
func WeeklyActivities(db *sql.DB, userID int64, now time.Time, weeks int) ([]*WeeklyActivity, error) {
	if weeks <= 0 {
		weeks = 8
	}

	monday := mondayOf(now)
	startMonday := monday.AddDate(0, 0, -(weeks-1)*7)

	out := make([]*WeeklyActivity, weeks)
	for i := range out {
		ws := startMonday.AddDate(0, 0, i*7)
		out[i] = &WeeklyActivity{
			WeekStart: ws.Format(stats.DateLayout),
			WeekEnd:   ws.AddDate(0, 0, 6).Format(stats.DateLayout),
		}
	}

	rows, err := db.Query(
		`SELECT date, COUNT(*) FROM workouts
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 GROUP BY date`,
		userID, startMonday.Format(stats.DateLayout), monday.AddDate(0, 0, 6).Format(stats.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("models: weekly activity for user %d: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var date string
		var n int
		if err := rows.Scan(&date, &n); err != nil {
			return nil, fmt.Errorf("models: scan weekly activity: %w", err)
		}
		d, err := time.Parse(stats.DateLayout, normalizeDate(date))
		if err != nil {
			continue
		}
		idx := int(d.Sub(startMonday).Hours()/24) / 7
		if idx < 0 || idx >= weeks {
			continue
		}
		out[idx].TrainingDays++
		out[idx].Workouts += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("models: iterate weekly activity: %w", err)
	}
	return out, nil
}

// CurrentStreak counts consecutive trained weeks ending with the newest one.
// An untrained current week does not break the streak yet.
func CurrentStreak(weeks []*WeeklyActivity) int {
	n := 0
	for i := len(weeks) - 1; i >= 0; i-- {
		if weeks[i].TrainingDays == 0 {
			if i == len(weeks)-1 {
				continue
			}
			break
		}
		n++
	}
	return n
}
