package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/carpenike/liftlog/internal/middleware"
	"github.com/carpenike/liftlog/internal/models"
)

// Pages holds dependencies for the dashboard.
type Pages struct {
	DB        *sql.DB
	Templates TemplateCache
}

// Dashboard renders the signed-in user's summary.
func (p *Pages) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	ds, err := models.GetDashboardStats(p.DB, user.ID, time.Now())
	if err != nil {
		log.Printf("handlers: dashboard stats for user %d: %v", user.ID, err)
		p.Templates.ServerError(w, r)
		return
	}

	p.Templates.page(w, r, "dashboard.html", map[string]any{
		"Stats": ds,
		"Today": today(),
	})
}
