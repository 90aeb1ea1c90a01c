package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/carpenike/liftlog/internal/middleware"
	"github.com/carpenike/liftlog/internal/models"
	"github.com/carpenike/liftlog/internal/notify"
)

// Profile holds dependencies for account settings handlers.
type Profile struct {
	DB        *sql.DB
	Templates TemplateCache
	Notifier  *notify.Notifier
}

// Show renders the profile page.
func (h *Profile) Show(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	h.render(w, r, user, http.StatusOK, map[string]any{
		"Success": r.URL.Query().Get("saved") != "",
	})
}

// Update changes the display name and weight unit.
func (h *Profile) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	_, err := models.UpdateProfile(h.DB, user.ID, strings.TrimSpace(r.FormValue("display_name")), r.FormValue("weight_unit"))
	if errors.Is(err, models.ErrInvalidInput) {
		h.render(w, r, user, http.StatusUnprocessableEntity, map[string]any{"Error": validationMessage(err)})
		return
	}
	if err != nil {
		log.Printf("handlers: update profile for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}
	redirect(w, r, "/profile?saved=1")
}

// Notifications saves, clears or tests the user's Shoutrrr URL, depending
// on the submitted action.
func (h *Profile) Notifications(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	rawURL := strings.TrimSpace(r.FormValue("notify_url"))
	fail := func(msg string) {
		h.render(w, r, user, http.StatusUnprocessableEntity, map[string]any{
			"NotifyError": msg,
			"NotifyInput": rawURL,
		})
	}

	switch r.FormValue("action") {
	case "test":
		if rawURL == "" {
			stored, err := models.NotifyURL(h.DB, user.ID)
			if err != nil {
				log.Printf("handlers: load notify url for user %d: %v", user.ID, err)
			}
			rawURL = stored
		}
		if rawURL == "" {
			fail("Enter a notification URL to test.")
			return
		}
		if err := h.Notifier.SendTest(rawURL); err != nil {
			fail("Test failed: " + err.Error())
			return
		}
		h.render(w, r, user, http.StatusOK, map[string]any{"NotifySuccess": "Test notification sent."})
		return
	case "clear":
		rawURL = ""
	default:
		if rawURL != "" {
			if err := notify.ValidateURL(rawURL); err != nil {
				fail("That is not a notification URL LiftLog understands.")
				return
			}
		}
	}

	err := models.SetNotifyURL(h.DB, user.ID, rawURL)
	if errors.Is(err, models.ErrNoSecretKey) {
		fail("Notifications are unavailable: the server has no secret key configured.")
		return
	}
	if err != nil {
		log.Printf("handlers: set notify url for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}
	redirect(w, r, "/profile?saved=1")
}

// Password changes the user's password after checking the current one.
func (h *Profile) Password(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	fail := func(msg string) {
		h.render(w, r, user, http.StatusUnprocessableEntity, map[string]any{"PasswordError": msg})
	}

	if !models.CheckPassword(user.PasswordHash, r.FormValue("current_password")) {
		fail("Current password is incorrect.")
		return
	}
	newPassword := r.FormValue("new_password")
	if newPassword != r.FormValue("confirm_password") {
		fail("New passwords do not match.")
		return
	}

	err := models.UpdatePassword(h.DB, user.ID, newPassword)
	if errors.Is(err, models.ErrInvalidInput) {
		fail(validationMessage(err))
		return
	}
	if err != nil {
		log.Printf("handlers: update password for user %d: %v", user.ID, err)
		h.Templates.ServerError(w, r)
		return
	}
	redirect(w, r, "/profile?saved=1")
}

func (h *Profile) render(w http.ResponseWriter, r *http.Request, user *models.User, status int, data map[string]any) {
	notifyURL, err := models.NotifyURL(h.DB, user.ID)
	if err != nil {
		log.Printf("handlers: load notify url for user %d: %v", user.ID, err)
	}
	if notifyURL != "" {
		data["NotifyMasked"] = notify.MaskURL(notifyURL)
	}
	data["Units"] = []string{models.UnitLbs, models.UnitKg}
	h.Templates.renderStatus(w, r, status, "profile.html", data)
}
