package models

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

// Metric is one body-measurement entry: weight, body fat percentage and an
// optional progress photo.
type Metric struct {
	ID        int64
	UserID    int64
	Date      string
	Weight    sql.NullFloat64
	BodyFat   sql.NullFloat64
	PhotoPath sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MetricInput carries the editable fields of a metric. PhotoPath is the
// stored file name returned by the photo store, or "" for none.
type MetricInput struct {
	Date      string
	Weight    sql.NullFloat64
	BodyFat   sql.NullFloat64
	PhotoPath string
}

// Validate checks the input and returns a normalized copy. At least one of
// weight, body fat or photo must be present.
func (in MetricInput) Validate() (MetricInput, error) {
	date, ok := parseDate(in.Date)
	if !ok {
		return in, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, in.Date)
	}
	in.Date = date

	if in.Weight.Valid && (math.IsNaN(in.Weight.Float64) || in.Weight.Float64 <= 0 || in.Weight.Float64 > 2000) {
		return in, fmt.Errorf("%w: body weight must be between 0 and 2000", ErrInvalidInput)
	}
	if in.BodyFat.Valid && (math.IsNaN(in.BodyFat.Float64) || in.BodyFat.Float64 < 0 || in.BodyFat.Float64 > 100) {
		return in, fmt.Errorf("%w: body fat must be between 0 and 100", ErrInvalidInput)
	}
	if !in.Weight.Valid && !in.BodyFat.Valid && in.PhotoPath == "" {
		return in, fmt.Errorf("%w: enter a weight, a body fat percentage or a photo", ErrInvalidInput)
	}
	return in, nil
}

// CreateMetric stores a new measurement for a user.
func CreateMetric(db *sql.DB, userID int64, in MetricInput) (*Metric, error) {
	in, err := in.Validate()
	if err != nil {
		return nil, err
	}
	result, err := db.Exec(
		`INSERT INTO metrics (user_id, date, weight, body_fat, photo_path) VALUES (?, ?, ?, ?, ?)`,
		userID, in.Date, in.Weight, in.BodyFat, nullString(in.PhotoPath),
	)
	if err != nil {
		return nil, fmt.Errorf("models: create metric for user %d on %s: %w", userID, in.Date, err)
	}
	id, _ := result.LastInsertId()
	return GetMetricByID(db, userID, id)
}

const metricColumns = `id, user_id, date, weight, body_fat, photo_path, created_at, updated_at`

func scanMetric(row interface{ Scan(...any) error }) (*Metric, error) {
	m := &Metric{}
	if err := row.Scan(&m.ID, &m.UserID, &m.Date, &m.Weight, &m.BodyFat, &m.PhotoPath, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Date = normalizeDate(m.Date)
	return m, nil
}

// GetMetricByID retrieves a metric owned by userID.
func GetMetricByID(db *sql.DB, userID, id int64) (*Metric, error) {
	m, err := scanMetric(db.QueryRow(
		`SELECT `+metricColumns+` FROM metrics WHERE id = ? AND user_id = ?`, id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get metric %d: %w", id, err)
	}
	return m, nil
}

// UpdateMetric replaces a metric's date and measurements. An empty PhotoPath
// keeps the existing photo.
func UpdateMetric(db *sql.DB, userID, id int64, in MetricInput) (*Metric, error) {
	existing, err := GetMetricByID(db, userID, id)
	if err != nil {
		return nil, err
	}
	if in.PhotoPath == "" {
		in.PhotoPath = existing.PhotoPath.String
	}
	in, err = in.Validate()
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(
		`UPDATE metrics SET date = ?, weight = ?, body_fat = ?, photo_path = ? WHERE id = ? AND user_id = ?`,
		in.Date, in.Weight, in.BodyFat, nullString(in.PhotoPath), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("models: update metric %d: %w", id, err)
	}
	return GetMetricByID(db, userID, id)
}

// DeleteMetric removes a metric and returns its photo path ("" if none) so
// the caller can remove the file.
func DeleteMetric(db *sql.DB, userID, id int64) (string, error) {
	var photo sql.NullString
	err := db.QueryRow(
		`DELETE FROM metrics WHERE id = ? AND user_id = ? RETURNING photo_path`, id, userID,
	).Scan(&photo)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("models: delete metric %d: %w", id, err)
	}
	return photo.String, nil
}

// ListMetrics returns a user's metrics between inclusive bounds, newest first.
func ListMetrics(db *sql.DB, userID int64, start, end string) ([]*Metric, error) {
	query, args := dateBounds(`SELECT `+metricColumns+` FROM metrics WHERE user_id = ?`, []any{userID}, start, end)
	query += ` ORDER BY date DESC, id DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list metrics for user %d: %w", userID, err)
	}
	defer rows.Close()

	var metrics []*Metric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// HasPhoto reports whether a user owns a metric referencing the photo.
func HasPhoto(db *sql.DB, userID int64, photoPath string) (bool, error) {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM metrics WHERE user_id = ? AND photo_path = ?`, userID, photoPath,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("models: check photo for user %d: %w", userID, err)
	}
	return n > 0, nil
}

// ListPhotoPaths returns every photo path referenced by any metric.
func ListPhotoPaths(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT photo_path FROM metrics WHERE photo_path IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("models: list photo paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]bool)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("models: scan photo path: %w", err)
		}
		paths[p] = true
	}
	return paths, rows.Err()
}

// MetricSummary describes a user's body-weight trend.
type MetricSummary struct {
	LatestWeight  sql.NullFloat64
	LatestBodyFat sql.NullFloat64
	// WeightChange is latest minus earliest recorded weight; zero with fewer
	// than two weighed entries.
	WeightChange float64
	Entries      int
}

// MetricsSummary computes the trend over every metric the user has logged.
func MetricsSummary(db *sql.DB, userID int64) (*MetricSummary, error) {
	s := &MetricSummary{}
	var first sql.NullFloat64
	err := db.QueryRow(`
		SELECT
			COUNT(*),
			(SELECT weight FROM metrics WHERE user_id = ?1 AND weight IS NOT NULL ORDER BY date DESC, id DESC LIMIT 1),
			(SELECT weight FROM metrics WHERE user_id = ?1 AND weight IS NOT NULL ORDER BY date ASC, id ASC LIMIT 1),
			(SELECT body_fat FROM metrics WHERE user_id = ?1 AND body_fat IS NOT NULL ORDER BY date DESC, id DESC LIMIT 1)
		FROM metrics WHERE user_id = ?1`, userID,
	).Scan(&s.Entries, &s.LatestWeight, &first, &s.LatestBodyFat)
	if err != nil {
		return nil, fmt.Errorf("models: metrics summary for user %d: %w", userID, err)
	}
	if s.LatestWeight.Valid && first.Valid {
		s.WeightChange = s.LatestWeight.Float64 - first.Float64
	}
	return s, nil
}
