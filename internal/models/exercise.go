package models

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrDuplicateExercise is returned when a user's custom exercise would
// shadow a preset or another of their exercises.
var ErrDuplicateExercise = errors.New("exercise already exists")

// ExerciseCategories lists the categories an exercise can belong to, in
// display order.
var ExerciseCategories = []string{"Chest", "Back", "Legs", "Shoulders", "Arms", "Core", "Cardio", "Other"}

// Exercise is an entry in the exercise catalog: a preset shared by everyone,
// or a custom exercise owned by one user.
type Exercise struct {
	ID                 int64
	Name               string
	Category           string
	Description        sql.NullString
	TargetMuscleGroups []string
	IsPreset           bool
	UserID             sql.NullInt64
	CreatedAt          time.Time
}

// ExerciseInput carries the fields of a new custom exercise.
type ExerciseInput struct {
	Name               string
	Category           string
	Description        string
	TargetMuscleGroups []string
}

func validCategory(c string) bool {
	for _, v := range ExerciseCategories {
		if v == c {
			return true
		}
	}
	return false
}

// splitMuscleGroups parses the comma-separated column value.
func splitMuscleGroups(s string) []string {
	var out []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

const exerciseColumns = `id, name, category, description, target_muscle_groups, is_preset, user_id, created_at`

func scanExercise(row interface{ Scan(...any) error }) (*Exercise, error) {
	e := &Exercise{}
	var groups sql.NullString
	if err := row.Scan(&e.ID, &e.Name, &e.Category, &e.Description, &groups, &e.IsPreset, &e.UserID, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.TargetMuscleGroups = splitMuscleGroups(groups.String)
	return e, nil
}

// CreateExercise adds a custom exercise for a user.
func CreateExercise(db *sql.DB, userID int64, in ExerciseInput) (*Exercise, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > MaxExerciseNameLength {
		return nil, fmt.Errorf("%w: exercise name must be 1-%d characters", ErrInvalidInput, MaxExerciseNameLength)
	}
	if !validCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}

	var exists int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM exercises WHERE name = ? COLLATE NOCASE AND (user_id IS NULL OR user_id = ?)`,
		name, userID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("models: check exercise %q: %w", name, err)
	}
	if exists > 0 {
		return nil, ErrDuplicateExercise
	}

	var groups []string
	for _, g := range in.TargetMuscleGroups {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}

	result, err := db.Exec(
		`INSERT INTO exercises (name, category, description, target_muscle_groups, is_preset, user_id)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		name, in.Category, nullString(in.Description), nullString(strings.Join(groups, ",")), userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateExercise
		}
		return nil, fmt.Errorf("models: create exercise %q: %w", name, err)
	}

	id, _ := result.LastInsertId()
	return GetExerciseByID(db, userID, id)
}

// GetExerciseByID retrieves a preset or one of the user's own exercises.
func GetExerciseByID(db *sql.DB, userID, id int64) (*Exercise, error) {
	e, err := scanExercise(db.QueryRow(
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = ? AND (user_id IS NULL OR user_id = ?)`, id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get exercise %d: %w", id, err)
	}
	return e, nil
}

// DeleteExercise removes one of the user's custom exercises. Presets cannot
// be deleted. Logged workouts keep their exercise name.
func DeleteExercise(db *sql.DB, userID, id int64) error {
	result, err := db.Exec(`DELETE FROM exercises WHERE id = ? AND user_id = ? AND is_preset = 0`, id, userID)
	if err != nil {
		return fmt.Errorf("models: delete exercise %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExercises returns the preset catalog plus the user's custom exercises,
// ordered by name.
func ListExercises(db *sql.DB, userID int64) ([]*Exercise, error) {
	rows, err := db.Query(
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE user_id IS NULL OR user_id = ?
		 ORDER BY name COLLATE NOCASE`, userID)
	if err != nil {
		return nil, fmt.Errorf("models: list exercises: %w", err)
	}
	defer rows.Close()

	var exercises []*Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan exercise: %w", err)
		}
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

// ExerciseGroup is one category's exercises.
type ExerciseGroup struct {
	Category  string
	Exercises []*Exercise
}

// CategorizeExercises groups exercises by category. Groups are sorted by
// category name and exercises by name within each group.
func CategorizeExercises(exercises []*Exercise) []ExerciseGroup {
	byCategory := make(map[string][]*Exercise)
	for _, e := range exercises {
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}

	groups := make([]ExerciseGroup, 0, len(byCategory))
	for cat, list := range byCategory {
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
		})
		groups = append(groups, ExerciseGroup{Category: cat, Exercises: list})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups
}

// ExerciseNames returns the names of exercises, for form autocompletion.
func ExerciseNames(exercises []*Exercise) []string {
	names := make([]string, len(exercises))
	for i, e := range exercises {
		names[i] = e.Name
	}
	return names
}
