package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/carpenike/liftlog/internal/database"
	"github.com/carpenike/liftlog/internal/handlers"
	"github.com/carpenike/liftlog/internal/middleware"
	"github.com/carpenike/liftlog/internal/models"
	"github.com/carpenike/liftlog/internal/notify"
	"github.com/carpenike/liftlog/internal/photos"
	"github.com/carpenike/liftlog/internal/scheduler"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:static
var staticFS embed.FS

// Login and signup attempts allowed per client IP per window.
const (
	authAttempts = 10
	authWindow   = 15 * time.Minute
)

func main() {
	dbPath := envOr("LIFTLOG_DB_PATH", "liftlog.db")
	addr := envOr("LIFTLOG_ADDR", ":8080")
	photoDir := envOr("LIFTLOG_PHOTO_DIR", "photos")
	allowSignup := os.Getenv("LIFTLOG_ALLOW_SIGNUP") != "false"

	maintenance := scheduler.DefaultInterval
	if v := os.Getenv("LIFTLOG_MAINTENANCE_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 1 {
			log.Fatalf("Invalid LIFTLOG_MAINTENANCE_HOURS %q: must be a positive number of hours", v)
		}
		maintenance = time.Duration(hours) * time.Hour
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Database ready: %s", filepath.Clean(dbPath))

	if os.Getenv(models.SecretKeyEnv) == "" {
		log.Printf("%s is not set; per-user notification URLs are disabled", models.SecretKeyEnv)
	}

	tc, err := handlers.NewTemplateCache(templateFS)
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	photoStore, err := photos.New(photoDir)
	if err != nil {
		log.Fatalf("Failed to prepare photo directory: %v", err)
	}

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(db)
	sessionManager.Lifetime = 30 * 24 * time.Hour
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = os.Getenv("LIFTLOG_SECURE_COOKIES") == "true"

	notifier := notify.New(db, os.Getenv("LIFTLOG_NOTIFY_URLS"))
	proxies := middleware.NewProxyResolver(os.Getenv("LIFTLOG_TRUSTED_PROXIES"))
	limiter := middleware.NewRateLimiter(authAttempts, authWindow, proxies)

	maint := scheduler.New(db, photoStore, maintenance)
	maint.Start()

	auth := &handlers.Auth{
		DB:          db,
		Sessions:    sessionManager,
		Templates:   tc,
		AllowSignup: allowSignup,
	}
	pages := &handlers.Pages{
		DB:        db,
		Templates: tc,
	}
	workouts := &handlers.Workouts{
		DB:        db,
		Templates: tc,
		Notifier:  notifier,
	}
	workoutTemplates := &handlers.Templates{
		DB:        db,
		Templates: tc,
	}
	progress := &handlers.Progress{
		DB:        db,
		Templates: tc,
		Photos:    photoStore,
	}
	exercises := &handlers.Exercises{
		DB:        db,
		Templates: tc,
	}
	statsPage := &handlers.Stats{
		DB:        db,
		Templates: tc,
	}
	profile := &handlers.Profile{
		DB:        db,
		Templates: tc,
		Notifier:  notifier,
	}
	importExport := &handlers.ImportExport{
		DB:        db,
		Sessions:  sessionManager,
		Templates: tc,
	}

	mux := http.NewServeMux()

	// Static files and health check.
	mux.Handle("GET /static/", http.FileServerFS(staticFS))
	mux.HandleFunc("GET /health", handleHealth)

	// Public routes. Sessions are loaded for every request below, so CSRF
	// applies here too.
	public := func(h http.HandlerFunc) http.Handler {
		return middleware.CSRFProtect(sessionManager, h)
	}
	guest := func(h http.HandlerFunc) http.Handler {
		return middleware.RedirectIfAuthenticated(sessionManager, limiter.Limit(public(h)))
	}

	mux.Handle("GET /{$}", public(auth.Landing))
	mux.Handle("GET /login", guest(auth.LoginPage))
	mux.Handle("POST /login", guest(auth.LoginSubmit))
	mux.Handle("GET /signup", guest(auth.SignupPage))
	mux.Handle("POST /signup", guest(auth.SignupSubmit))
	mux.Handle("POST /logout", public(auth.Logout))

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(sessionManager, db, middleware.CSRFProtect(sessionManager, h))
	}

	mux.Handle("GET /dashboard", requireAuth(pages.Dashboard))

	// Workouts.
	mux.Handle("GET /workouts", requireAuth(workouts.List))
	mux.Handle("GET /workouts/new", requireAuth(workouts.NewForm))
	mux.Handle("POST /workouts", requireAuth(workouts.Create))
	mux.Handle("GET /workouts/{id}", requireAuth(workouts.Show))
	mux.Handle("GET /workouts/{id}/edit", requireAuth(workouts.EditForm))
	mux.Handle("POST /workouts/{id}", requireAuth(workouts.Update))
	mux.Handle("POST /workouts/{id}/delete", requireAuth(workouts.Delete))

	// Import / export.
	mux.Handle("GET /workouts/export.csv", requireAuth(importExport.ExportCSV))
	mux.Handle("GET /workouts/import", requireAuth(importExport.ImportPage))
	mux.Handle("POST /workouts/import", requireAuth(importExport.Upload))
	mux.Handle("POST /workouts/import/confirm", requireAuth(importExport.Confirm))
	mux.Handle("POST /workouts/import/cancel", requireAuth(importExport.Cancel))

	// Workout templates.
	mux.Handle("GET /templates", requireAuth(workoutTemplates.List))
	mux.Handle("GET /templates/new", requireAuth(workoutTemplates.NewForm))
	mux.Handle("POST /templates", requireAuth(workoutTemplates.Create))
	mux.Handle("GET /templates/{id}/edit", requireAuth(workoutTemplates.EditForm))
	mux.Handle("POST /templates/{id}", requireAuth(workoutTemplates.Update))
	mux.Handle("POST /templates/{id}/delete", requireAuth(workoutTemplates.Delete))
	mux.Handle("POST /templates/{id}/use", requireAuth(workoutTemplates.Use))

	// Body metrics and progress photos.
	mux.Handle("GET /progress", requireAuth(progress.List))
	mux.Handle("POST /progress", requireAuth(progress.Create))
	mux.Handle("GET /progress/{id}/edit", requireAuth(progress.EditForm))
	mux.Handle("POST /progress/{id}", requireAuth(progress.Update))
	mux.Handle("POST /progress/{id}/delete", requireAuth(progress.Delete))
	mux.Handle("GET /photos/{owner}/{file}", requireAuth(progress.Photo))

	// Exercise catalog.
	mux.Handle("GET /exercises", requireAuth(exercises.List))
	mux.Handle("POST /exercises", requireAuth(exercises.Create))
	mux.Handle("POST /exercises/{id}/delete", requireAuth(exercises.Delete))

	// Statistics.
	mux.Handle("GET /stats", requireAuth(statsPage.Page))
	mux.Handle("GET /stats.json", requireAuth(statsPage.JSON))

	// Profile.
	mux.Handle("GET /profile", requireAuth(profile.Show))
	mux.Handle("POST /profile", requireAuth(profile.Update))
	mux.Handle("POST /profile/notifications", requireAuth(profile.Notifications))
	mux.Handle("POST /profile/password", requireAuth(profile.Password))

	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.SecurityHeaders(middleware.RequestLogger(proxies, sessionManager.LoadAndSave(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("LiftLog listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Printf("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
	maint.Stop()
	limiter.Stop()
	notifier.Wait()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "ok")
}
