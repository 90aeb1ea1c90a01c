package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/carpenike/liftlog/internal/middleware"
	"github.com/carpenike/liftlog/internal/models"
)

// Templates holds dependencies for workout template handlers.
type Templates struct {
	DB        *sql.DB
	Templates TemplateCache
}

// List renders the user's templates.
func (h *Templates) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	templates, err := models.ListTemplates(h.DB, user.ID)
	if err != nil {
		log.Printf("handlers: list templates for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}
	h.Templates.page(w, r, "templates.html", map[string]any{
		"WorkoutTemplates": templates,
		"Today":            today(),
	})
}

// NewForm renders an empty template form with one exercise row.
func (h *Templates) NewForm(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	in := models.TemplateInput{Exercises: []models.TemplateExercise{{Sets: 3, Reps: 10}}}
	h.renderForm(w, r, user.ID, http.StatusOK, nil, in, "")
}

// Create stores a new template.
func (h *Templates) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	in, ok := parseTemplateForm(w, r)
	if !ok {
		return
	}

	_, err := models.CreateTemplate(h.DB, user.ID, in)
	if errors.Is(err, models.ErrInvalidInput) {
		h.renderForm(w, r, user.ID, http.StatusUnprocessableEntity, nil, in, validationMessage(err))
		return
	}
	if err != nil {
		log.Printf("handlers: create template for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}
	redirect(w, r, "/templates")
}

// EditForm renders the form pre-filled with a template.
func (h *Templates) EditForm(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	in := models.TemplateInput{
		Name:        t.Name,
		Description: t.Description.String,
		Exercises:   t.Exercises,
	}
	h.renderForm(w, r, t.UserID, http.StatusOK, t, in, "")
}

// Update saves changes to a template.
func (h *Templates) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	in, ok := parseTemplateForm(w, r)
	if !ok {
		return
	}

	_, err := models.UpdateTemplate(h.DB, user.ID, id, in)
	switch {
	case errors.Is(err, models.ErrNotFound):
		h.Templates.NotFound(w, r)
		return
	case errors.Is(err, models.ErrInvalidInput):
		h.renderForm(w, r, user.ID, http.StatusUnprocessableEntity, &models.WorkoutTemplate{ID: id}, in, validationMessage(err))
		return
	case err != nil:
		log.Printf("handlers: update template %d: %v", id, err)
		h.Templates.ServerError(w, r)
		return
	}
	redirect(w, r, "/templates")
}

// Delete removes a template.
func (h *Templates) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := models.DeleteTemplate(h.DB, user.ID, id)
	if errors.Is(err, models.ErrNotFound) {
		h.Templates.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("handlers: delete template %d: %v", id, err)
		h.Templates.ServerError(w, r)
		return
	}
	redirect(w, r, "/templates")
}

// Use logs every exercise of a template as a workout on the submitted date
// (today when blank). All rows are written together or not at all.
func (h *Templates) Use(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	date := strings.TrimSpace(r.FormValue("date"))
	if date == "" {
		date = today()
	}

	n, err := models.UseTemplate(h.DB, user.ID, id, date)
	switch {
	case errors.Is(err, models.ErrNotFound):
		h.Templates.NotFound(w, r)
		return
	case errors.Is(err, models.ErrInvalidInput):
		templates, _ := models.ListTemplates(h.DB, user.ID)
		h.Templates.renderStatus(w, r, http.StatusUnprocessableEntity, "templates.html", map[string]any{
			"WorkoutTemplates": templates,
			"Today":            today(),
			"Error":            validationMessage(err),
		})
		return
	case err != nil:
		log.Printf("handlers: use template %d for user %d: %v", id, user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}

	log.Printf("handlers: user %d logged %d workout(s) from template %d", user.ID, n, id)
	redirect(w, r, "/workouts")
}

func (h *Templates) load(w http.ResponseWriter, r *http.Request) (*models.WorkoutTemplate, bool) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	t, err := models.GetTemplateByID(h.DB, user.ID, id)
	if errors.Is(err, models.ErrNotFound) {
		h.Templates.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		log.Printf("handlers: get template %d: %v", id, err)
		h.Templates.ServerError(w, r)
		return nil, false
	}
	return t, true
}

// parseTemplateForm reads the template name and its exercise rows, submitted
// as parallel exercise/sets/reps/weight/notes fields. Rows without an
// exercise name are dropped.
func parseTemplateForm(w http.ResponseWriter, r *http.Request) (models.TemplateInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return models.TemplateInput{}, false
	}

	in := models.TemplateInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}
	names := r.Form["exercise"]
	at := func(key string, i int) string {
		if vals := r.Form[key]; i < len(vals) {
			return strings.TrimSpace(vals[i])
		}
		return ""
	}
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		sets, _ := strconv.Atoi(at("sets", i))
		reps, _ := strconv.Atoi(at("reps", i))
		weight, err := strconv.ParseFloat(at("weight", i), 64)
		if err != nil {
			weight = 0
		}
		in.Exercises = append(in.Exercises, models.TemplateExercise{
			Exercise: name,
			Sets:     sets,
			Reps:     reps,
			Weight:   weight,
			Notes:    at("notes", i),
		})
	}
	return in, true
}

func (h *Templates) renderForm(w http.ResponseWriter, r *http.Request, userID int64, status int, t *models.WorkoutTemplate, in models.TemplateInput, errMsg string) {
	exercises, err := models.ListExercises(h.DB, userID)
	if err != nil {
		log.Printf("handlers: list exercises for template form: %v", err)
	}
	h.Templates.renderStatus(w, r, status, "template_form.html", map[string]any{
		"Template":      t,
		"Form":          in,
		"ExerciseNames": models.ExerciseNames(exercises),
		"Error":         errMsg,
	})
}
