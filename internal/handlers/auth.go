package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/carpenike/liftlog/internal/middleware"
	"github.com/carpenike/liftlog/internal/models"
)

// Auth holds dependencies for sign-in, sign-up and sign-out.
type Auth struct {
	DB          *sql.DB
	Sessions    *scs.SessionManager
	Templates   TemplateCache
	AllowSignup bool
}

// Landing renders the public home page, or sends signed-in users to their
// dashboard.
func (a *Auth) Landing(w http.ResponseWriter, r *http.Request) {
	if a.Sessions.GetInt64(r.Context(), middleware.SessionUserKey) != 0 {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	a.Templates.page(w, r, "landing.html", map[string]any{
		"AllowSignup": a.AllowSignup,
	})
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	a.Templates.page(w, r, "login.html", map[string]any{
		"AllowSignup": a.AllowSignup,
	})
}

// LoginSubmit processes the login form.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		a.loginError(w, r, email, "Email and password are required.")
		return
	}

	user, err := models.Authenticate(a.DB, email, password)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) && !errors.Is(err, models.ErrInvalidInput) {
			log.Printf("handlers: authenticate %q: %v", email, err)
		}
		a.loginError(w, r, email, "Invalid email or password.")
		return
	}

	if err := a.signIn(r, user.ID); err != nil {
		log.Printf("handlers: start session for user %d: %v", user.ID, err)
		a.Templates.ServerError(w, r)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (a *Auth) loginError(w http.ResponseWriter, r *http.Request, email, msg string) {
	a.Templates.renderStatus(w, r, http.StatusUnprocessableEntity, "login.html", map[string]any{
		"Error":       msg,
		"Email":       email,
		"AllowSignup": a.AllowSignup,
	})
}

// SignupPage renders the registration form.
func (a *Auth) SignupPage(w http.ResponseWriter, r *http.Request) {
	if !a.AllowSignup {
		a.Templates.NotFound(w, r)
		return
	}
	a.Templates.page(w, r, "signup.html", nil)
}

// SignupSubmit creates an account and signs the new user in.
func (a *Auth) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	if !a.AllowSignup {
		a.Templates.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	password := r.FormValue("password")

	fail := func(msg string) {
		a.Templates.renderStatus(w, r, http.StatusUnprocessableEntity, "signup.html", map[string]any{
			"Error":       msg,
			"Email":       email,
			"DisplayName": displayName,
		})
	}

	if password != r.FormValue("confirm_password") {
		fail("Passwords do not match.")
		return
	}

	user, err := models.CreateUser(a.DB, email, password, displayName)
	switch {
	case errors.Is(err, models.ErrDuplicateEmail):
		fail("An account with that email already exists.")
		return
	case errors.Is(err, models.ErrInvalidInput):
		fail(validationMessage(err))
		return
	case err != nil:
		log.Printf("handlers: create user %q: %v", email, err)
		a.Templates.ServerError(w, r)
		return
	}

	if err := a.signIn(r, user.ID); err != nil {
		log.Printf("handlers: start session for new user %d: %v", user.ID, err)
		a.Templates.ServerError(w, r)
		return
	}
	log.Printf("handlers: registered user %d", user.ID)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// signIn renews the session token to prevent fixation and stores userID.
func (a *Auth) signIn(r *http.Request, userID int64) error {
	if err := a.Sessions.RenewToken(r.Context()); err != nil {
		return err
	}
	a.Sessions.Put(r.Context(), middleware.SessionUserKey, userID)
	middleware.RotateCSRFToken(r.Context(), a.Sessions)
	return nil
}

// Logout destroys the session and returns to the landing page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Destroy(r.Context()); err != nil {
		log.Printf("handlers: destroy session: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
