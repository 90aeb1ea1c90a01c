package handlers

import (
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/carpenike/liftlog/internal/middleware"
	"github.com/carpenike/liftlog/internal/stats"
)

// TemplateCache maps page filenames to parsed template sets. Each set contains
// the base layout combined with a single page template.
type TemplateCache map[string]*template.Template

// templateFuncs are available to every page.
var templateFuncs = template.FuncMap{
	"formatDate": stats.FormatDate,
	"weight":     formatWeight,
	"comma": func(v float64) string {
		return humanize.CommafWithDigits(v, 1)
	},
	"count": func(n int) string {
		return humanize.Comma(int64(n))
	},
	"ago":  humanize.Time,
	"pct":  func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" },
	"add1": func(i int) int { return i + 1 },
}

// formatWeight renders a weight without trailing zeros ("102.5", "100").
func formatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewTemplateCache parses all page templates from fsys. Each page is combined
// with the base layout, which renders the navigation only for signed-in users.
func NewTemplateCache(fsys fs.FS) (TemplateCache, error) {
	cache := TemplateCache{}

	pages, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("handlers: glob page templates: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("handlers: no page templates found")
	}

	for _, page := range pages {
		name := filepath.Base(page)
		ts, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, "templates/layouts/base.html", page)
		if err != nil {
			return nil, fmt.Errorf("handlers: parse %s with layout: %w", name, err)
		}
		cache[name] = ts
	}

	return cache, nil
}

// Render executes a page template with the base layout. It injects the
// authenticated User and the CSRF token into the data. Non-boosted htmx
// requests get only the content fragment.
func (tc TemplateCache) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	ts, ok := tc[name]
	if !ok {
		return fmt.Errorf("handlers: template %q not found in cache", name)
	}

	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["User"]; !exists {
		if user := middleware.UserFromContext(r.Context()); user != nil {
			data["User"] = user
		}
	}
	data["CSRFToken"] = middleware.CSRFTokenFromContext(r.Context())

	if r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Boosted") != "true" {
		return ts.ExecuteTemplate(w, "content", data)
	}
	return ts.ExecuteTemplate(w, "base", data)
}

// renderStatus writes status and renders a page, logging template failures.
func (tc TemplateCache) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tc.Render(w, r, name, data); err != nil {
		log.Printf("handlers: render %s: %v", name, err)
	}
}

// page renders a page with 200, or a plain 500 when the template fails.
func (tc TemplateCache) page(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := tc.Render(w, r, name, data); err != nil {
		log.Printf("handlers: render %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (tc TemplateCache) errorPage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if _, ok := tc["error.html"]; !ok {
		http.Error(w, msg, status)
		return
	}
	tc.renderStatus(w, r, status, "error.html", map[string]any{
		"Status":  status,
		"Message": msg,
	})
}

// NotFound renders the 404 page.
func (tc TemplateCache) NotFound(w http.ResponseWriter, r *http.Request) {
	tc.errorPage(w, r, http.StatusNotFound, "Not found")
}

// Forbidden renders the 403 page.
func (tc TemplateCache) Forbidden(w http.ResponseWriter, r *http.Request) {
	tc.errorPage(w, r, http.StatusForbidden, "You do not have access to this page")
}

// ServerError renders the 500 page. The cause is logged by the caller.
func (tc TemplateCache) ServerError(w http.ResponseWriter, r *http.Request) {
	tc.errorPage(w, r, http.StatusInternalServerError, "Something went wrong")
}
