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
	"github.com/carpenike/liftlog/internal/notify"
)

// Workouts holds dependencies for workout logging handlers.
type Workouts struct {
	DB        *sql.DB
	Templates TemplateCache
	Notifier  *notify.Notifier
}

// List renders the paginated workout history.
func (h *Workouts) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	page, err := models.ListWorkoutPage(h.DB, user.ID, offset)
	if err != nil {
		log.Printf("handlers: list workouts for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}

	h.Templates.page(w, r, "workouts.html", map[string]any{
		"Workouts":   page.Workouts,
		"HasMore":    page.HasMore,
		"NextOffset": page.NextOffset(),
	})
}

// NewForm renders an empty workout form dated today. ?exercise= preselects
// an exercise.
func (h *Workouts) NewForm(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	in := models.WorkoutInput{
		Date:     today(),
		Exercise: r.URL.Query().Get("exercise"),
		Sets:     3,
		Reps:     10,
	}
	h.renderForm(w, r, user.ID, http.StatusOK, nil, in, "")
}

// Create logs a workout and announces a new personal record when the weight
// beats the previous best for the exercise.
func (h *Workouts) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	in, err := in.Validate()
	if err != nil {
		h.renderForm(w, r, user.ID, http.StatusUnprocessableEntity, nil, in, validationMessage(err))
		return
	}

	previous, hadPrevious, err := models.BestWeight(h.DB, user.ID, in.Exercise)
	if err != nil {
		log.Printf("handlers: best weight for user %d: %v", user.ID, err)
	}

	workout, err := models.CreateWorkout(h.DB, user.ID, in)
	if err != nil {
		log.Printf("handlers: create workout for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}

	h.Notifier.PersonalRecord(workout, previous, hadPrevious, user.WeightUnit)
	redirect(w, r, "/workouts")
}

// Show renders a single workout.
func (h *Workouts) Show(w http.ResponseWriter, r *http.Request) {
	workout, ok := h.load(w, r)
	if !ok {
		return
	}
	h.Templates.page(w, r, "workout.html", map[string]any{
		"Workout": workout,
	})
}

// EditForm renders the form pre-filled with a workout.
func (h *Workouts) EditForm(w http.ResponseWriter, r *http.Request) {
	workout, ok := h.load(w, r)
	if !ok {
		return
	}
	in := models.WorkoutInput{
		Date:     workout.Date,
		Exercise: workout.Exercise,
		Sets:     workout.Sets,
		Reps:     workout.Reps,
		Weight:   workout.Weight,
		Notes:    workout.Notes.String,
	}
	h.renderForm(w, r, workout.UserID, http.StatusOK, workout, in, "")
}

// Update saves changes to a workout.
func (h *Workouts) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	workout, err := models.UpdateWorkout(h.DB, user.ID, id, in)
	switch {
	case errors.Is(err, models.ErrNotFound):
		h.Templates.NotFound(w, r)
		return
	case errors.Is(err, models.ErrInvalidInput):
		h.renderForm(w, r, user.ID, http.StatusUnprocessableEntity, &models.Workout{ID: id}, in, validationMessage(err))
		return
	case err != nil:
		log.Printf("handlers: update workout %d: %v", id, err)
		h.Templates.ServerError(w, r)
		return
	}

	redirect(w, r, "/workouts/"+strconv.FormatInt(workout.ID, 10))
}

// Delete removes a workout.
func (h *Workouts) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := models.DeleteWorkout(h.DB, user.ID, id)
	if errors.Is(err, models.ErrNotFound) {
		h.Templates.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("handlers: delete workout %d: %v", id, err)
		h.Templates.ServerError(w, r)
		return
	}

	redirect(w, r, "/workouts")
}

// load fetches the {id} workout owned by the signed-in user, writing the
// error response itself when it cannot.
func (h *Workouts) load(w http.ResponseWriter, r *http.Request) (*models.Workout, bool) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	workout, err := models.GetWorkoutByID(h.DB, user.ID, id)
	if errors.Is(err, models.ErrNotFound) {
		h.Templates.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		log.Printf("handlers: get workout %d: %v", id, err)
		h.Templates.ServerError(w, r)
		return nil, false
	}
	return workout, true
}

func (h *Workouts) parseForm(w http.ResponseWriter, r *http.Request) (models.WorkoutInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return models.WorkoutInput{}, false
	}
	weight, _, err := formFloat(r, "weight")
	if err != nil {
		weight = -1
	}
	return models.WorkoutInput{
		Date:     strings.TrimSpace(r.FormValue("date")),
		Exercise: r.FormValue("exercise"),
		Sets:     formInt(r, "sets"),
		Reps:     formInt(r, "reps"),
		Weight:   weight,
		Notes:    r.FormValue("notes"),
	}, true
}

// renderForm shows the workout form. workout is nil when creating.
func (h *Workouts) renderForm(w http.ResponseWriter, r *http.Request, userID int64, status int, workout *models.Workout, in models.WorkoutInput, errMsg string) {
	exercises, err := models.ListExercises(h.DB, userID)
	if err != nil {
		log.Printf("handlers: list exercises for workout form: %v", err)
	}
	h.Templates.renderStatus(w, r, status, "workout_form.html", map[string]any{
		"Workout":   workout,
		"Form":      in,
		"Exercises": models.CategorizeExercises(exercises),
		"Error":     errMsg,
	})
}

// validationMessage drops the sentinel text from a validation error so only
// the human-readable part is shown.
func validationMessage(err error) string {
	return strings.Replace(err.Error(), models.ErrInvalidInput.Error()+": ", "", 1)
}
