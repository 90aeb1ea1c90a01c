package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/carpenike/liftlog/internal/models"
	"github.com/carpenike/liftlog/internal/notify"
)

func newProfile(t *testing.T) *Profile {
	t.Helper()
	db := testDB(t)
	return &Profile{DB: db, Templates: testTemplateCache(t), Notifier: notify.New(db, "")}
}

func TestProfile_Show(t *testing.T) {
	h := newProfile(t)
	user := seedUser(t, h.DB, "lifter@example.com")

	rr := serve(h.Show, requestWithUser("GET", "/profile", nil, user))
	assertStatus(t, rr, http.StatusOK)
	if strings.Contains(rr.Body.String(), " saved") {
		t.Error("saved banner shown without ?saved")
	}

	rr = serve(h.Show, requestWithUser("GET", "/profile?saved=1", nil, user))
	assertBodyContains(t, rr, " saved")
}

func TestProfile_Update(t *testing.T) {
	h := newProfile(t)
	user := seedUser(t, h.DB, "lifter@example.com")

	rr := serve(h.Update, requestWithUser("POST", "/profile", url.Values{
		"display_name": {"  Sam "},
		"weight_unit":  {"kg"},
	}, user))
	assertRedirect(t, rr, "/profile?saved=1")

	got, err := models.GetUserByID(h.DB, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.DisplayName.String != "Sam" || got.WeightUnit != models.UnitKg {
		t.Errorf("user = %+v", got)
	}

	rr = serve(h.Update, requestWithUser("POST", "/profile", url.Values{
		"display_name": {"Sam"},
		"weight_unit":  {"stone"},
	}, user))
	assertStatus(t, rr, http.StatusUnprocessableEntity)
	assertBodyContains(t, rr, "weight unit")
}

func TestProfile_Notifications(t *testing.T) {
	const ntfyURL = "ntfy://ntfy.sh/liftlog-profile-test"

	t.Run("rejects unknown url", func(t *testing.T) {
		t.Setenv(models.SecretKeyEnv, "test-secret")
		h := newProfile(t)
		user := seedUser(t, h.DB, "lifter@example.com")

		rr := serve(h.Notifications, requestWithUser("POST", "/profile/notifications", url.Values{
			"notify_url": {"carrier-pigeon://coop"},
		}, user))
		assertStatus(t, rr, http.StatusUnprocessableEntity)
		assertBodyContains(t, rr, "not a notification URL LiftLog understands")
	})

	t.Run("no secret key", func(t *testing.T) {
		t.Setenv(models.SecretKeyEnv, "")
		h := newProfile(t)
		user := seedUser(t, h.DB, "lifter@example.com")

		rr := serve(h.Notifications, requestWithUser("POST", "/profile/notifications", url.Values{
			"notify_url": {ntfyURL},
		}, user))
		assertStatus(t, rr, http.StatusUnprocessableEntity)
		assertBodyContains(t, rr, "no secret key configured")
	})

	t.Run("save then clear", func(t *testing.T) {
		t.Setenv(models.SecretKeyEnv, "test-secret")
		h := newProfile(t)
		user := seedUser(t, h.DB, "lifter@example.com")

		rr := serve(h.Notifications, requestWithUser("POST", "/profile/notifications", url.Values{
			"notify_url": {ntfyURL},
			"action":     {"save"},
		}, user))
		assertRedirect(t, rr, "/profile?saved=1")

		stored, err := models.NotifyURL(h.DB, user.ID)
		if err != nil {
			t.Fatalf("notify url: %v", err)
		}
		if stored != ntfyURL {
			t.Errorf("stored = %q, want %q", stored, ntfyURL)
		}

		rr = serve(h.Show, requestWithUser("GET", "/profile", nil, user))
		assertBodyContains(t, rr, "notify=ntfy://••••")
		if strings.Contains(rr.Body.String(), "liftlog-profile-test") {
			t.Error("profile page shows the unmasked url")
		}

		rr = serve(h.Notifications, requestWithUser("POST", "/profile/notifications", url.Values{
			"notify_url": {ntfyURL},
			"action":     {"clear"},
		}, user))
		assertRedirect(t, rr, "/profile?saved=1")
		if stored, _ := models.NotifyURL(h.DB, user.ID); stored != "" {
			t.Errorf("url after clear = %q, want empty", stored)
		}
	})

	t.Run("test action", func(t *testing.T) {
		t.Setenv(models.SecretKeyEnv, "test-secret")
		h := newProfile(t)
		user := seedUser(t, h.DB, "lifter@example.com")

		var sentTo []string
		h.Notifier.SetSender(func(rawURL, _ string) error {
			sentTo = append(sentTo, rawURL)
			if strings.Contains(rawURL, "broken") {
				return errors.New("connection refused")
			}
			return nil
		})
		test := func(rawURL string) *http.Request {
			return requestWithUser("POST", "/profile/notifications", url.Values{
				"notify_url": {rawURL},
				"action":     {"test"},
			}, user)
		}

		rr := serve(h.Notifications, test(""))
		assertStatus(t, rr, http.StatusUnprocessableEntity)
		assertBodyContains(t, rr, "Enter a notification URL to test.")

		rr = serve(h.Notifications, test(ntfyURL))
		assertStatus(t, rr, http.StatusOK)
		assertBodyContains(t, rr, "Test notification sent.")

		rr = serve(h.Notifications, test("ntfy://ntfy.sh/broken"))
		assertStatus(t, rr, http.StatusUnprocessableEntity)
		assertBodyContains(t, rr, "Test failed")

		// A blank field falls back to the stored url.
		if err := models.SetNotifyURL(h.DB, user.ID, ntfyURL); err != nil {
			t.Fatalf("set notify url: %v", err)
		}
		rr = serve(h.Notifications, test(""))
		assertStatus(t, rr, http.StatusOK)

		want := []string{ntfyURL, "ntfy://ntfy.sh/broken", ntfyURL}
		if strings.Join(sentTo, " ") != strings.Join(want, " ") {
			t.Errorf("sent to %q, want %q", sentTo, want)
		}
	})
}

func TestProfile_Password(t *testing.T) {
	h := newProfile(t)
	user := seedUser(t, h.DB, "lifter@example.com")

	tests := []struct {
		name    string
		form    url.Values
		wantMsg string
	}{
		{"wrong current", url.Values{"current_password": {"nope"}, "new_password": {"newpassword1"}, "confirm_password": {"newpassword1"}}, "Current password is incorrect."},
		{"mismatch", url.Values{"current_password": {"password123"}, "new_password": {"newpassword1"}, "confirm_password": {"newpassword2"}}, "New passwords do not match."},
		{"too short", url.Values{"current_password": {"password123"}, "new_password": {"short"}, "confirm_password": {"short"}}, "password must be at least"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h.Password, requestWithUser("POST", "/profile/password", tt.form, user))
			assertStatus(t, rr, http.StatusUnprocessableEntity)
			assertBodyContains(t, rr, tt.wantMsg)
		})
	}

	rr := serve(h.Password, requestWithUser("POST", "/profile/password", url.Values{
		"current_password": {"password123"},
		"new_password":     {"newpassword1"},
		"confirm_password": {"newpassword1"},
	}, user))
	assertRedirect(t, rr, "/profile?saved=1")

	if _, err := models.Authenticate(h.DB, user.Email, "newpassword1"); err != nil {
		t.Errorf("authenticate with new password: %v", err)
	}
	if _, err := models.Authenticate(h.DB, user.Email, "password123"); err == nil {
		t.Error("old password still accepted")
	}
}
