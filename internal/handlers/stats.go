package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/carpenike/liftlog/internal/middleware"
	"github.com/carpenike/liftlog/internal/models"
	"github.com/carpenike/liftlog/internal/stats"
)

// Stats serves the statistics page and its JSON form. Each user gets one
// stats.Controller that remembers their last filter between requests.
type Stats struct {
	DB        *sql.DB
	Templates TemplateCache

	mu          sync.Mutex
	controllers map[int64]*stats.Controller
	fetcher     stats.Fetcher
}

// controller returns the user's controller, creating it on first use.
func (h *Stats) controller(userID int64) *stats.Controller {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.controllers == nil {
		h.controllers = make(map[int64]*stats.Controller)
	}
	c, ok := h.controllers[userID]
	if !ok {
		f := h.fetcher
		if f == nil {
			f = models.WorkoutSource{DB: h.DB}
		}
		c = stats.NewController(f, userID)
		h.controllers[userID] = c
	}
	return c
}

// load applies ?range= and ?exercise= to the user's controller. Without
// either parameter the controller refetches with its current filter so newly
// logged workouts show up.
func (h *Stats) load(r *http.Request, userID int64) (stats.Snapshot, error) {
	c := h.controller(userID)
	q := r.URL.Query()
	if !q.Has("range") && !q.Has("exercise") {
		return c.Refresh(r.Context())
	}

	f := c.Snapshot().Filter
	if q.Has("range") {
		f.Range = stats.TimeRange(q.Get("range"))
	}
	if q.Has("exercise") {
		f.Exercise = q.Get("exercise")
	}
	return c.SetFilter(r.Context(), f)
}

// Page renders the statistics dashboard.
func (h *Stats) Page(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	snap, err := h.load(r, user.ID)
	status := http.StatusOK
	errMsg := ""
	var fetchErr *stats.FetchError
	switch {
	case errors.Is(err, stats.ErrInvalidTimeRange):
		status = http.StatusBadRequest
		errMsg = "Unknown time range."
	case errors.As(err, &fetchErr):
		log.Printf("handlers: load stats for user %d: %v", user.ID, err)
		status = http.StatusInternalServerError
		errMsg = "Could not load your workouts. Please try again."
	case err != nil:
		log.Printf("handlers: load stats for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}

	views := snap.Views
	h.Templates.renderStatus(w, r, status, "stats.html", map[string]any{
		"Snapshot":          snap,
		"Views":             views,
		"Ranges":            stats.TimeRanges,
		"Error":             errMsg,
		"ProgressChart":     models.ProgressChart(views.ExerciseProgress, user.WeightUnit),
		"FrequencyChart":    models.FrequencyChart(views.WorkoutFrequency),
		"VolumeChart":       models.VolumeChart(views.VolumeData),
		"DistributionChart": models.DistributionChart(views.Distribution),
	})
}

// statsResponse is the JSON shape of GET /stats.json.
type statsResponse struct {
	State  string       `json:"state"`
	Filter stats.Filter `json:"filter"`
	Unit   string       `json:"unit"`
	Views  *stats.Views `json:"views"`
	Error  string       `json:"error,omitempty"`
}

// JSON returns the same views as Page for scripts and charts.
func (h *Stats) JSON(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	snap, err := h.load(r, user.ID)
	resp := statsResponse{
		State:  snap.State.String(),
		Filter: snap.Filter,
		Unit:   user.WeightUnit,
		Views:  snap.Views,
	}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusInternalServerError
		if errors.Is(err, stats.ErrInvalidTimeRange) {
			status = http.StatusBadRequest
		} else {
			log.Printf("handlers: load stats json for user %d: %v", user.ID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("handlers: encode stats json: %v", err)
	}
}
