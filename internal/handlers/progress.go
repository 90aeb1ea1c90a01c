package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/carpenike/liftlog/internal/middleware"
	"github.com/carpenike/liftlog/internal/models"
	"github.com/carpenike/liftlog/internal/photos"
	"github.com/carpenike/liftlog/internal/stats"
)

// Progress holds dependencies for body metric and progress photo handlers.
type Progress struct {
	DB        *sql.DB
	Templates TemplateCache
	Photos    *photos.Store
}

// List renders metrics within the selected time range with weight and body
// fat charts, plus the form for a new entry.
func (h *Progress) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	tr, err := stats.ParseTimeRange(r.URL.Query().Get("range"))
	if err != nil {
		http.Error(w, "Invalid time range", http.StatusBadRequest)
		return
	}

	data, err := h.listData(user, tr)
	if err != nil {
		log.Printf("handlers: list metrics for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}
	data["Form"] = models.MetricInput{Date: today()}
	h.Templates.page(w, r, "progress.html", data)
}

func (h *Progress) listData(user *models.User, tr stats.TimeRange) (map[string]any, error) {
	metrics, err := models.ListMetrics(h.DB, user.ID, tr.StartDate(time.Now()), "")
	if err != nil {
		return nil, err
	}
	summary, err := models.MetricsSummary(h.DB, user.ID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"Metrics":      metrics,
		"Summary":      summary,
		"Range":        tr,
		"Ranges":       stats.TimeRanges,
		"WeightChart":  models.BodyWeightChart(metrics, user.WeightUnit),
		"BodyFatChart": models.BodyFatChart(metrics),
	}, nil
}

// Create stores a new metric, saving the uploaded photo first when present.
func (h *Progress) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	in, photoErr, ok := h.parseForm(w, r, user.ID)
	if !ok {
		return
	}
	if photoErr != "" {
		h.renderListError(w, r, user, in, photoErr)
		return
	}

	_, err := models.CreateMetric(h.DB, user.ID, in)
	if err != nil {
		h.discardPhoto(user.ID, in.PhotoPath)
		if errors.Is(err, models.ErrInvalidInput) {
			h.renderListError(w, r, user, in, validationMessage(err))
			return
		}
		log.Printf("handlers: create metric for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}
	redirect(w, r, "/progress")
}

// EditForm renders the form pre-filled with a metric.
func (h *Progress) EditForm(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	m, err := models.GetMetricByID(h.DB, user.ID, id)
	if errors.Is(err, models.ErrNotFound) {
		h.Templates.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("handlers: get metric %d: %v", id, err)
		h.Templates.ServerError(w, r)
		return
	}

	h.Templates.page(w, r, "metric_form.html", map[string]any{
		"Metric": m,
		"Form": models.MetricInput{
			Date:      m.Date,
			Weight:    m.Weight,
			BodyFat:   m.BodyFat,
			PhotoPath: m.PhotoPath.String,
		},
	})
}

// Update saves changes to a metric. A newly uploaded photo replaces the old
// one, whose file is then removed.
func (h *Progress) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	existing, err := models.GetMetricByID(h.DB, user.ID, id)
	if errors.Is(err, models.ErrNotFound) {
		h.Templates.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("handlers: get metric %d: %v", id, err)
		h.Templates.ServerError(w, r)
		return
	}

	in, photoErr, ok := h.parseForm(w, r, user.ID)
	if !ok {
		return
	}
	renderErr := func(msg string) {
		h.Templates.renderStatus(w, r, http.StatusUnprocessableEntity, "metric_form.html", map[string]any{
			"Metric": existing,
			"Form":   in,
			"Error":  msg,
		})
	}
	if photoErr != "" {
		renderErr(photoErr)
		return
	}

	_, err = models.UpdateMetric(h.DB, user.ID, id, in)
	if err != nil {
		h.discardPhoto(user.ID, in.PhotoPath)
		if errors.Is(err, models.ErrInvalidInput) {
			renderErr(validationMessage(err))
			return
		}
		log.Printf("handlers: update metric %d: %v", id, err)
		h.Templates.ServerError(w, r)
		return
	}

	if in.PhotoPath != "" && existing.PhotoPath.Valid && existing.PhotoPath.String != in.PhotoPath {
		h.discardPhoto(user.ID, existing.PhotoPath.String)
	}
	redirect(w, r, "/progress")
}

// Delete removes a metric and its photo.
func (h *Progress) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	photoPath, err := models.DeleteMetric(h.DB, user.ID, id)
	if errors.Is(err, models.ErrNotFound) {
		h.Templates.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("handlers: delete metric %d: %v", id, err)
		h.Templates.ServerError(w, r)
		return
	}
	h.discardPhoto(user.ID, photoPath)
	redirect(w, r, "/progress")
}

// Photo serves a progress photo to the user who owns it. Anyone else gets
// a 404, the same as for a missing file.
func (h *Progress) Photo(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	name := r.PathValue("owner") + "/" + r.PathValue("file")

	path, err := h.Photos.Path(user.ID, name)
	if err != nil {
		h.Templates.NotFound(w, r)
		return
	}
	owned, err := models.HasPhoto(h.DB, user.ID, name)
	if err != nil {
		log.Printf("handlers: check photo %s: %v", name, err)
		h.Templates.ServerError(w, r)
		return
	}
	if !owned {
		h.Templates.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeFile(w, r, path)
}

// parseForm reads the metric fields and stores an uploaded photo. photoErr
// is a user-facing message when the upload was rejected.
func (h *Progress) parseForm(w http.ResponseWriter, r *http.Request, userID int64) (in models.MetricInput, photoErr string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, photos.MaxSize+1<<20)
	if err := r.ParseMultipartForm(photos.MaxSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return in, "Photo too large. Maximum size is 5 MB.", true
		}
		http.Error(w, "Bad request", http.StatusBadRequest)
		return in, "", false
	}

	in.Date = strings.TrimSpace(r.FormValue("date"))
	for _, f := range []struct {
		key string
		dst *sql.NullFloat64
	}{{"weight", &in.Weight}, {"body_fat", &in.BodyFat}} {
		v, given, err := formFloat(r, f.key)
		if err != nil {
			return in, "Measurements must be numbers.", true
		}
		*f.dst = sql.NullFloat64{Float64: v, Valid: given}
	}

	file, _, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return in, "", true
	}
	if err != nil {
		return in, "Failed to read uploaded photo.", true
	}
	defer file.Close()

	name, err := h.Photos.Save(userID, file)
	switch {
	case errors.Is(err, photos.ErrTooLarge):
		return in, "Photo too large. Maximum size is 5 MB.", true
	case errors.Is(err, photos.ErrUnsupportedType):
		return in, "Unsupported photo type. Use JPEG, PNG, GIF or WebP.", true
	case err != nil:
		log.Printf("handlers: save photo for user %d: %v", userID, err)
		return in, "Failed to save photo.", true
	}
	in.PhotoPath = name
	return in, "", true
}

func (h *Progress) discardPhoto(userID int64, name string) {
	if name == "" {
		return
	}
	if err := h.Photos.Delete(userID, name); err != nil {
		log.Printf("handlers: delete photo %s: %v", name, err)
	}
}

func (h *Progress) renderListError(w http.ResponseWriter, r *http.Request, user *models.User, in models.MetricInput, msg string) {
	data, err := h.listData(user, stats.DefaultTimeRange)
	if err != nil {
		log.Printf("handlers: list metrics for user %d: %v", user.ID, err)
		data = map[string]any{}
	}
	data["Form"] = in
	data["Error"] = msg
	h.Templates.renderStatus(w, r, http.StatusUnprocessableEntity, "progress.html", data)
}
