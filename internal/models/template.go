package models

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxTemplateExercises caps how many exercises one template may hold.
const MaxTemplateExercises = 30

// TemplateExercise is one planned exercise within a workout template.
type TemplateExercise struct {
	Exercise string  `json:"exercise"`
	Sets     int     `json:"sets"`
	Reps     int     `json:"reps"`
	Weight   float64 `json:"weight"`
	Notes    string  `json:"notes,omitempty"`
}

// WorkoutTemplate is a reusable list of exercises that can be logged as
// workouts in one step.
type WorkoutTemplate struct {
	ID          int64
	UserID      int64
	Name        string
	Description sql.NullString
	Exercises   []TemplateExercise
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TemplateInput carries the editable fields of a template.
type TemplateInput struct {
	Name        string
	Description string
	Exercises   []TemplateExercise
}

// Validate checks the template and returns a normalized copy. Every exercise
// must itself be a valid workout.
func (in TemplateInput) Validate() (TemplateInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return in, fmt.Errorf("%w: template name is required", ErrInvalidInput)
	}
	if len(in.Exercises) == 0 {
		return in, fmt.Errorf("%w: a template needs at least one exercise", ErrInvalidInput)
	}
	if len(in.Exercises) > MaxTemplateExercises {
		return in, fmt.Errorf("%w: a template holds at most %d exercises", ErrInvalidInput, MaxTemplateExercises)
	}

	exercises := make([]TemplateExercise, len(in.Exercises))
	for i, te := range in.Exercises {
		w, err := te.workout("2000-01-01").Validate()
		if err != nil {
			return in, fmt.Errorf("exercise %d: %w", i+1, err)
		}
		exercises[i] = TemplateExercise{Exercise: w.Exercise, Sets: w.Sets, Reps: w.Reps, Weight: w.Weight, Notes: w.Notes}
	}
	in.Exercises = exercises
	return in, nil
}

func (te TemplateExercise) workout(date string) WorkoutInput {
	return WorkoutInput{
		Date:     date,
		Exercise: te.Exercise,
		Sets:     te.Sets,
		Reps:     te.Reps,
		Weight:   te.Weight,
		Notes:    te.Notes,
	}
}

// Workouts expands the template into one workout input per exercise on date.
func (t *WorkoutTemplate) Workouts(date string) []WorkoutInput {
	out := make([]WorkoutInput, len(t.Exercises))
	for i, te := range t.Exercises {
		out[i] = te.workout(date)
	}
	return out
}

// CreateTemplate stores a new template for a user.
func CreateTemplate(db *sql.DB, userID int64, in TemplateInput) (*WorkoutTemplate, error) {
	in, err := in.Validate()
	if err != nil {
		return nil, err
	}
	exJSON, err := json.Marshal(in.Exercises)
	if err != nil {
		return nil, fmt.Errorf("models: encode template exercises: %w", err)
	}

	result, err := db.Exec(
		`INSERT INTO workout_templates (user_id, name, description, exercises) VALUES (?, ?, ?, ?)`,
		userID, in.Name, nullString(in.Description), string(exJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("models: create template %q: %w", in.Name, err)
	}

	id, _ := result.LastInsertId()
	return GetTemplateByID(db, userID, id)
}

const templateColumns = `id, user_id, name, description, exercises, created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (*WorkoutTemplate, error) {
	t := &WorkoutTemplate{}
	var exJSON string
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &exJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(exJSON), &t.Exercises); err != nil {
		return nil, fmt.Errorf("decode exercises of template %d: %w", t.ID, err)
	}
	return t, nil
}

// GetTemplateByID retrieves a template owned by userID.
func GetTemplateByID(db *sql.DB, userID, id int64) (*WorkoutTemplate, error) {
	t, err := scanTemplate(db.QueryRow(
		`SELECT `+templateColumns+` FROM workout_templates WHERE id = ? AND user_id = ?`, id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get template %d: %w", id, err)
	}
	return t, nil
}

// ListTemplates returns a user's templates ordered by name.
func ListTemplates(db *sql.DB, userID int64) ([]*WorkoutTemplate, error) {
	rows, err := db.Query(
		`SELECT `+templateColumns+` FROM workout_templates
		 WHERE user_id = ? ORDER BY name COLLATE NOCASE, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("models: list templates for user %d: %w", userID, err)
	}
	defer rows.Close()

	var templates []*WorkoutTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// UpdateTemplate replaces a template's fields.
func UpdateTemplate(db *sql.DB, userID, id int64, in TemplateInput) (*WorkoutTemplate, error) {
	in, err := in.Validate()
	if err != nil {
		return nil, err
	}
	exJSON, err := json.Marshal(in.Exercises)
	if err != nil {
		return nil, fmt.Errorf("models: encode template exercises: %w", err)
	}

	result, err := db.Exec(
		`UPDATE workout_templates SET name = ?, description = ?, exercises = ? WHERE id = ? AND user_id = ?`,
		in.Name, nullString(in.Description), string(exJSON), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("models: update template %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return GetTemplateByID(db, userID, id)
}

// DeleteTemplate removes a template owned by userID.
func DeleteTemplate(db *sql.DB, userID, id int64) error {
	result, err := db.Exec(`DELETE FROM workout_templates WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("models: delete template %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UseTemplate logs every exercise of a template as a workout on date, all in
// one transaction.
func UseTemplate(db *sql.DB, userID, id int64, date string) (int, error) {
	t, err := GetTemplateByID(db, userID, id)
	if err != nil {
		return 0, err
	}
	return CreateWorkoutsBatch(db, userID, t.Workouts(date))
}
