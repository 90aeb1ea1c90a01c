package handlers

import (
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/carpenike/liftlog/internal/importers"
	"github.com/carpenike/liftlog/internal/middleware"
	"github.com/carpenike/liftlog/internal/models"
	"github.com/carpenike/liftlog/internal/stats"
)

func init() {
	// Pending imports live in the session between preview and confirm.
	gob.Register(&pendingImport{})
}

const (
	maxUploadSize      = 10 << 20 // 10 MB
	importSessionKey   = "pending_import"
	importPreviewLimit = 20
)

// pendingImport is a parsed upload awaiting confirmation.
type pendingImport struct {
	Parsed   *importers.ParsedFile
	Mappings []importers.ExerciseMapping
}

// ImportExport holds dependencies for CSV import and export handlers.
type ImportExport struct {
	DB        *sql.DB
	Sessions  *scs.SessionManager
	Templates TemplateCache
}

// ExportCSV downloads every workout as a LiftLog CSV file.
func (h *ImportExport) ExportCSV(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	workouts, err := models.ListWorkouts(h.DB, user.ID, "", "")
	if err != nil {
		log.Printf("handlers: list workouts for export for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}

	records := make([]importers.ParsedRecord, len(workouts))
	for i, wk := range workouts {
		records[i] = importers.ParsedRecord{
			Date:     wk.Date,
			Exercise: wk.Exercise,
			Sets:     wk.Sets,
			Reps:     wk.Reps,
			Weight:   wk.Weight,
			Notes:    wk.Notes.String,
		}
	}

	filename := fmt.Sprintf("liftlog-workouts-%s.csv", time.Now().Format(stats.DateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := importers.WriteLiftLogCSV(w, records); err != nil {
		log.Printf("handlers: write csv export: %v", err)
	}
}

// ImportPage renders the upload form, or the preview of a pending import.
func (h *ImportExport) ImportPage(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	if p, ok := h.pending(r); ok {
		data = previewData(p)
	}
	h.Templates.page(w, r, "import.html", data)
}

// Upload parses an uploaded export, maps its exercise names onto the user's
// catalog and shows a preview. Nothing is written until Confirm.
func (h *ImportExport) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	fail := func(msg string) {
		h.Templates.renderStatus(w, r, http.StatusUnprocessableEntity, "import.html", map[string]any{
			"Error": msg,
		})
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		fail("File too large. Maximum size is 10 MB.")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		fail("Please select a file to upload.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		log.Printf("handlers: read import upload: %v", err)
		h.Templates.ServerError(w, r)
		return
	}
	if len(data) > maxUploadSize {
		fail("File too large. Maximum size is 10 MB.")
		return
	}

	parsed, err := importers.Parse(data, user.WeightUnit)
	if err != nil {
		log.Printf("handlers: parse import for user %d: %v", user.ID, err)
		fail("Could not read the file. LiftLog, Strong and Hevy CSV exports are supported.")
		return
	}
	if len(parsed.Records) == 0 {
		fail("No workouts found in the uploaded file.")
		return
	}

	exercises, err := models.ListExercises(h.DB, user.ID)
	if err != nil {
		log.Printf("handlers: list exercises for import mapping: %v", err)
		h.Templates.ServerError(w, r)
		return
	}

	p := &pendingImport{
		Parsed:   parsed,
		Mappings: importers.BuildExerciseMappings(parsed.Exercises, models.ExerciseNames(exercises)),
	}
	h.Sessions.Put(r.Context(), importSessionKey, p)

	h.Templates.page(w, r, "import.html", previewData(p))
}

// Confirm writes the pending import, honoring any exercise names the user
// edited on the preview (submitted as mapped_<i>). All rows are inserted in
// one transaction.
func (h *ImportExport) Confirm(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	p, ok := h.pending(r)
	if !ok {
		redirect(w, r, "/workouts/import")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	for i := range p.Mappings {
		if v := strings.TrimSpace(r.FormValue("mapped_" + strconv.Itoa(i))); v != "" {
			p.Mappings[i].MappedName = v
		}
	}
	importers.ApplyMappings(p.Parsed, p.Mappings)

	inputs := make([]models.WorkoutInput, len(p.Parsed.Records))
	for i, rec := range p.Parsed.Records {
		inputs[i] = models.WorkoutInput{
			Date:     rec.Date,
			Exercise: rec.Exercise,
			Sets:     rec.Sets,
			Reps:     rec.Reps,
			Weight:   rec.Weight,
			Notes:    rec.Notes,
		}
	}

	n, err := models.CreateWorkoutsBatch(h.DB, user.ID, inputs)
	if errors.Is(err, models.ErrInvalidInput) {
		data := previewData(p)
		data["Error"] = "Import failed: " + validationMessage(err)
		h.Templates.renderStatus(w, r, http.StatusUnprocessableEntity, "import.html", data)
		return
	}
	if err != nil {
		log.Printf("handlers: import workouts for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}

	h.Sessions.Remove(r.Context(), importSessionKey)
	log.Printf("handlers: user %d imported %d workout(s) from %s", user.ID, n, p.Parsed.Format)
	h.Templates.page(w, r, "import.html", map[string]any{
		"Imported": n,
		"Skipped":  p.Parsed.Skipped,
	})
}

// Cancel discards a pending import.
func (h *ImportExport) Cancel(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Remove(r.Context(), importSessionKey)
	redirect(w, r, "/workouts/import")
}

func (h *ImportExport) pending(r *http.Request) (*pendingImport, bool) {
	p, ok := h.Sessions.Get(r.Context(), importSessionKey).(*pendingImport)
	return p, ok && p != nil && p.Parsed != nil
}

func previewData(p *pendingImport) map[string]any {
	sample := p.Parsed.Records
	if len(sample) > importPreviewLimit {
		sample = sample[:importPreviewLimit]
	}
	return map[string]any{
		"Pending":  p,
		"Format":   p.Parsed.Format.Label(),
		"Total":    len(p.Parsed.Records),
		"Skipped":  p.Parsed.Skipped,
		"Sample":   sample,
		"Mappings": p.Mappings,
	}
}
