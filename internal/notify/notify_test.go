package notify

import (
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/carpenike/liftlog/internal/database"
	"github.com/carpenike/liftlog/internal/models"
)

func testDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type sent struct {
	url, body string
}

// recorder captures messages instead of delivering them.
type recorder struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (r *recorder) send(url, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{url, body})
	return r.err
}

func newTestNotifier(t *testing.T, db *sql.DB, broadcast string) (*Notifier, *recorder) {
	t.Helper()
	n := New(db, broadcast)
	rec := &recorder{}
	n.SetSender(rec.send)
	return n, rec
}

func TestSend_UserAndBroadcast(t *testing.T) {
	t.Setenv(models.SecretKeyEnv, "notify-test-key")
	db := testDB(t)
	u, err := models.CreateUser(db, "n@example.com", "password123", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := models.SetNotifyURL(db, u.ID, "ntfy://ntfy.sh/mine"); err != nil {
		t.Fatalf("set url: %v", err)
	}

	n, rec := newTestNotifier(t, db, "discord://token@id, \n ntfy://ntfy.sh/all")
	n.Send(Request{UserID: u.ID, Title: "Hello", Message: "World", Link: "/stats"})
	n.Wait()

	if len(rec.msgs) != 3 {
		t.Fatalf("sent %d messages, want 3", len(rec.msgs))
	}
	if rec.msgs[2].url != "ntfy://ntfy.sh/mine" {
		t.Errorf("last url = %q, want user url", rec.msgs[2].url)
	}
	if rec.msgs[0].body != "Hello\nWorld\n/stats" {
		t.Errorf("body = %q", rec.msgs[0].body)
	}
}

func TestSend_NothingConfigured(t *testing.T) {
	db := testDB(t)
	u, _ := models.CreateUser(db, "quiet@example.com", "password123", "")

	n, rec := newTestNotifier(t, db, "")
	n.Send(Request{UserID: u.ID, Title: "Hello"})
	n.Send(Request{UserID: u.ID})
	n.Wait()

	if len(rec.msgs) != 0 {
		t.Errorf("sent %d messages, want 0", len(rec.msgs))
	}
}

func TestSend_ErrorsAreSwallowed(t *testing.T) {
	db := testDB(t)
	n, rec := newTestNotifier(t, db, "ntfy://ntfy.sh/a,ntfy://ntfy.sh/b")
	rec.err = errors.New("unreachable")

	n.Send(Request{Title: "Still tries every url"})
	n.Wait()

	if len(rec.msgs) != 2 {
		t.Errorf("attempted %d urls, want 2", len(rec.msgs))
	}
}

func TestPersonalRecord(t *testing.T) {
	db := testDB(t)
	n, rec := newTestNotifier(t, db, "ntfy://ntfy.sh/prs")

	w := &models.Workout{UserID: 0, Date: "2024-01-02", Exercise: "Bench Press", Weight: 230}

	n.PersonalRecord(w, 0, false, "lbs")
	n.PersonalRecord(w, 230, true, "lbs")
	n.Wait()
	if len(rec.msgs) != 0 {
		t.Fatalf("sent %d messages for non-records, want 0", len(rec.msgs))
	}

	n.PersonalRecord(w, 225, true, "lbs")
	n.Wait()
	if len(rec.msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(rec.msgs))
	}
	body := rec.msgs[0].body
	for _, want := range []string{"New personal record: Bench Press", "230 lbs on Jan 2, 2024", "previous best 225 lbs", "/stats?exercise=Bench+Press"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}

func TestNilNotifier(t *testing.T) {
	var n *Notifier
	n.Send(Request{Title: "no-op"})
}

func TestParseURLs(t *testing.T) {
	got := parseURLs(" a://x ,\nb://y,, ")
	if len(got) != 2 || got[0] != "a://x" || got[1] != "b://y" {
		t.Errorf("parseURLs = %q", got)
	}
	if parseURLs("") != nil {
		t.Error("expected nil for empty input")
	}
}

func TestMaskURL(t *testing.T) {
	tests := map[string]string{
		"discord://secret@channel": "discord://••••",
		"abc":                      "••••",
		"no-scheme-here":           "no-sc••••",
	}
	for in, want := range tests {
		if got := MaskURL(in); got != want {
			t.Errorf("MaskURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("not a url"); err == nil {
		t.Error("expected error for garbage url")
	}
	if err := ValidateURL("discord://token@123456"); err != nil {
		t.Errorf("discord url rejected: %v", err)
	}
}
