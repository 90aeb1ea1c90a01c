package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/carpenike/liftlog/internal/middleware"
	"github.com/carpenike/liftlog/internal/models"
)

// Exercises holds dependencies for the exercise catalog handlers.
type Exercises struct {
	DB        *sql.DB
	Templates TemplateCache
}

// List renders preset and custom exercises grouped by category, with the
// form for adding a custom exercise.
func (h *Exercises) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	h.render(w, r, user.ID, http.StatusOK, models.ExerciseInput{Category: models.ExerciseCategories[0]}, "")
}

// Create adds a custom exercise.
func (h *Exercises) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	in := models.ExerciseInput{
		Name:               r.FormValue("name"),
		Category:           r.FormValue("category"),
		Description:        r.FormValue("description"),
		TargetMuscleGroups: splitList(r.FormValue("target_muscle_groups")),
	}

	_, err := models.CreateExercise(h.DB, user.ID, in)
	switch {
	case errors.Is(err, models.ErrDuplicateExercise):
		h.render(w, r, user.ID, http.StatusUnprocessableEntity, in, "An exercise with that name already exists.")
		return
	case errors.Is(err, models.ErrInvalidInput):
		h.render(w, r, user.ID, http.StatusUnprocessableEntity, in, validationMessage(err))
		return
	case err != nil:
		log.Printf("handlers: create exercise for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}
	redirect(w, r, "/exercises")
}

// Delete removes a custom exercise. Presets cannot be deleted.
func (h *Exercises) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := models.DeleteExercise(h.DB, user.ID, id)
	if errors.Is(err, models.ErrNotFound) {
		h.Templates.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("handlers: delete exercise %d: %v", id, err)
		h.Templates.ServerError(w, r)
		return
	}
	redirect(w, r, "/exercises")
}

func (h *Exercises) render(w http.ResponseWriter, r *http.Request, userID int64, status int, in models.ExerciseInput, errMsg string) {
	exercises, err := models.ListExercises(h.DB, userID)
	if err != nil {
		log.Printf("handlers: list exercises for user %d: %v", userID, err)
		h.Templates.ServerError(w, r)
		return
	}
	h.Templates.renderStatus(w, r, status, "exercises.html", map[string]any{
		"Groups":     models.CategorizeExercises(exercises),
		"Categories": models.ExerciseCategories,
		"Form":       in,
		"Error":      errMsg,
	})
}

// splitList parses a comma-separated field, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
