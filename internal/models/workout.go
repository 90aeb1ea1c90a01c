package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/carpenike/liftlog/internal/database"
	"github.com/carpenike/liftlog/internal/stats"
)

// Limits applied by WorkoutInput.Validate.
const (
	MaxExerciseNameLength = 100
	MaxSets               = 100
	MaxReps               = 1000
	MaxWeight             = 10000
)

// Workout is one logged exercise performance: an exercise done for a number
// of sets of reps at a weight on a date.
type Workout struct {
	ID        int64
	UserID    int64
	Date      string // YYYY-MM-DD
	Exercise  string
	Sets      int
	Reps      int
	Weight    float64
	Notes     sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Volume returns weight × sets × reps.
func (w *Workout) Volume() float64 {
	return w.Weight * float64(w.Sets) * float64(w.Reps)
}

// Record converts the workout to the aggregation input type.
func (w *Workout) Record() stats.Record {
	return stats.Record{
		Date:     w.Date,
		Exercise: w.Exercise,
		Sets:     w.Sets,
		Reps:     w.Reps,
		Weight:   w.Weight,
	}
}

// WorkoutInput carries the user-editable fields of a workout.
type WorkoutInput struct {
	Date     string
	Exercise string
	Sets     int
	Reps     int
	Weight   float64
	Notes    string
}

// Validate checks the input and returns a normalized copy: the date in
// canonical YYYY-MM-DD form and text fields trimmed. Errors wrap
// ErrInvalidInput.
func (in WorkoutInput) Validate() (WorkoutInput, error) {
	date, ok := parseDate(in.Date)
	if !ok {
		return in, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, in.Date)
	}
	in.Date = date

	in.Exercise = strings.TrimSpace(in.Exercise)
	switch {
	case in.Exercise == "":
		return in, fmt.Errorf("%w: exercise is required", ErrInvalidInput)
	case len(in.Exercise) > MaxExerciseNameLength:
		return in, fmt.Errorf("%w: exercise name longer than %d characters", ErrInvalidInput, MaxExerciseNameLength)
	case in.Sets < 1 || in.Sets > MaxSets:
		return in, fmt.Errorf("%w: sets must be between 1 and %d", ErrInvalidInput, MaxSets)
	case in.Reps < 1 || in.Reps > MaxReps:
		return in, fmt.Errorf("%w: reps must be between 1 and %d", ErrInvalidInput, MaxReps)
	case math.IsNaN(in.Weight) || in.Weight < 0 || in.Weight > MaxWeight:
		return in, fmt.Errorf("%w: weight must be between 0 and %d", ErrInvalidInput, MaxWeight)
	}

	in.Notes = strings.TrimSpace(in.Notes)
	return in, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertWorkout(ex execer, userID int64, in WorkoutInput) (int64, error) {
	result, err := ex.Exec(
		`INSERT INTO workouts (user_id, date, exercise, sets, reps, weight, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, in.Date, in.Exercise, in.Sets, in.Reps, in.Weight, nullString(in.Notes),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CreateWorkout validates and logs a workout for a user.
func CreateWorkout(db *sql.DB, userID int64, in WorkoutInput) (*Workout, error) {
	in, err := in.Validate()
	if err != nil {
		return nil, err
	}
	id, err := insertWorkout(db, userID, in)
	if err != nil {
		return nil, fmt.Errorf("models: create workout for user %d on %s: %w", userID, in.Date, err)
	}
	return GetWorkoutByID(db, userID, id)
}

// CreateWorkoutsBatch validates every input and inserts them all in one
// transaction. Nothing is written if any input is invalid or any insert fails.
func CreateWorkoutsBatch(db *sql.DB, userID int64, inputs []WorkoutInput) (int, error) {
	valid := make([]WorkoutInput, len(inputs))
	for i, in := range inputs {
		v, err := in.Validate()
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		valid[i] = v
	}

	err := database.WithTx(db, func(tx *sql.Tx) error {
		for _, in := range valid {
			if _, err := insertWorkout(tx, userID, in); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("models: create %d workouts for user %d: %w", len(valid), userID, err)
	}
	return len(valid), nil
}

const workoutColumns = `id, user_id, date, exercise, sets, reps, weight, notes, created_at, updated_at`

func scanWorkout(row interface{ Scan(...any) error }) (*Workout, error) {
	w := &Workout{}
	err := row.Scan(&w.ID, &w.UserID, &w.Date, &w.Exercise, &w.Sets, &w.Reps, &w.Weight, &w.Notes, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	w.Date = normalizeDate(w.Date)
	return w, nil
}

// GetWorkoutByID retrieves a workout owned by userID. A workout belonging to
// someone else is reported as ErrNotFound.
func GetWorkoutByID(db *sql.DB, userID, id int64) (*Workout, error) {
	w, err := scanWorkout(db.QueryRow(
		`SELECT `+workoutColumns+` FROM workouts WHERE id = ? AND user_id = ?`, id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get workout %d: %w", id, err)
	}
	return w, nil
}

// UpdateWorkout replaces the editable fields of a workout.
func UpdateWorkout(db *sql.DB, userID, id int64, in WorkoutInput) (*Workout, error) {
	in, err := in.Validate()
	if err != nil {
		return nil, err
	}
	result, err := db.Exec(
		`UPDATE workouts SET date = ?, exercise = ?, sets = ?, reps = ?, weight = ?, notes = ?
		 WHERE id = ? AND user_id = ?`,
		in.Date, in.Exercise, in.Sets, in.Reps, in.Weight, nullString(in.Notes), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("models: update workout %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return GetWorkoutByID(db, userID, id)
}

// DeleteWorkout removes a workout owned by userID.
func DeleteWorkout(db *sql.DB, userID, id int64) error {
	result, err := db.Exec(`DELETE FROM workouts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("models: delete workout %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// dateBounds appends inclusive start/end filters to a WHERE clause.
func dateBounds(query string, args []any, start, end string) (string, []any) {
	if start != "" {
		query += ` AND date >= ?`
		args = append(args, start)
	}
	if end != "" {
		query += ` AND date <= ?`
		args = append(args, end)
	}
	return query, args
}

// ListWorkouts returns a user's workouts between the inclusive YYYY-MM-DD
// bounds (empty means unbounded), newest date first. Within a date the most
// recently logged comes first.
func ListWorkouts(db *sql.DB, userID int64, start, end string) ([]*Workout, error) {
	return listWorkouts(context.Background(), db, userID, start, end)
}

func listWorkouts(ctx context.Context, db *sql.DB, userID int64, start, end string) ([]*Workout, error) {
	query, args := dateBounds(`SELECT `+workoutColumns+` FROM workouts WHERE user_id = ?`, []any{userID}, start, end)
	query += ` ORDER BY date DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list workouts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var workouts []*Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// WorkoutPageSize is the max number of workouts returned per page.
const WorkoutPageSize = 25

// WorkoutPage holds a page of workouts and whether more exist.
type WorkoutPage struct {
	Workouts []*Workout
	HasMore  bool
	Offset   int
}

// NextOffset returns the offset of the following page.
func (p *WorkoutPage) NextOffset() int {
	return p.Offset + WorkoutPageSize
}

// ListWorkoutPage returns one page of a user's workout history, newest first.
func ListWorkoutPage(db *sql.DB, userID int64, offset int) (*WorkoutPage, error) {
	if offset < 0 {
		offset = 0
	}
	rows, err := db.Query(
		`SELECT `+workoutColumns+` FROM workouts WHERE user_id = ?
		 ORDER BY date DESC, id DESC
		 LIMIT ? OFFSET ?`, userID, WorkoutPageSize+1, offset)
	if err != nil {
		return nil, fmt.Errorf("models: list workout page for user %d: %w", userID, err)
	}
	defer rows.Close()

	var workouts []*Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(workouts) > WorkoutPageSize
	if hasMore {
		workouts = workouts[:WorkoutPageSize]
	}
	return &WorkoutPage{Workouts: workouts, HasMore: hasMore, Offset: offset}, nil
}

// RecentWorkouts returns the user's latest workouts, at most limit.
func RecentWorkouts(db *sql.DB, userID int64, limit int) ([]*Workout, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := db.Query(
		`SELECT `+workoutColumns+` FROM workouts WHERE user_id = ?
		 ORDER BY date DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("models: recent workouts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var workouts []*Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// CountWorkouts counts a user's workouts between inclusive bounds.
func CountWorkouts(db *sql.DB, userID int64, start, end string) (int, error) {
	query, args := dateBounds(`SELECT COUNT(*) FROM workouts WHERE user_id = ?`, []any{userID}, start, end)
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("models: count workouts for user %d: %w", userID, err)
	}
	return n, nil
}

// BestWeight returns the heaviest weight the user has logged for exercise.
// ok is false when the exercise has never been logged.
func BestWeight(db *sql.DB, userID int64, exercise string) (best float64, ok bool, err error) {
	var w sql.NullFloat64
	err = db.QueryRow(
		`SELECT MAX(weight) FROM workouts WHERE user_id = ? AND exercise = ?`, userID, exercise,
	).Scan(&w)
	if err != nil {
		return 0, false, fmt.Errorf("models: best weight for %q: %w", exercise, err)
	}
	return w.Float64, w.Valid, nil
}

// WorkoutSource serves workout records to the stats aggregator.
type WorkoutSource struct {
	DB *sql.DB
}

// FetchWorkouts implements stats.Fetcher.
func (s WorkoutSource) FetchWorkouts(ctx context.Context, userID int64, startDate, endDate string) ([]stats.Record, error) {
	workouts, err := listWorkouts(ctx, s.DB, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	records := make([]stats.Record, len(workouts))
	for i, w := range workouts {
		records[i] = w.Record()
	}
	return records, nil
}
