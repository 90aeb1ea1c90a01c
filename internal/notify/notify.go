// Package notify delivers user notifications through Shoutrrr service URLs
// (ntfy, Discord, Telegram, smtp, ...).
//
// Two delivery targets:
//   - Per-user: the URL a user saved on their profile (stored encrypted).
//   - Broadcast: URLs configured for the whole instance via LIFTLOG_NOTIFY_URLS.
//
// Delivery is asynchronous: callers never wait on, or fail because of, a
// notification.
package notify

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/carpenike/liftlog/internal/models"
	"github.com/carpenike/liftlog/internal/stats"
	"github.com/containrrr/shoutrrr"
)

// Request describes a notification to send.
type Request struct {
	UserID  int64  // Target user; 0 sends to broadcast URLs only
	Title   string // Short headline
	Message string // Longer description (optional)
	Link    string // Relative URL to open (optional)
}

// Notifier dispatches notifications to per-user and broadcast URLs.
type Notifier struct {
	db        *sql.DB
	broadcast []string
	send      func(rawURL, message string) error
	wg        sync.WaitGroup
}

// New returns a Notifier. broadcastURLs is a comma- or newline-separated
// list of Shoutrrr URLs notified of every event, or "".
func New(db *sql.DB, broadcastURLs string) *Notifier {
	return &Notifier{
		db:        db,
		broadcast: parseURLs(broadcastURLs),
		send:      shoutrrr.Send,
	}
}

// SetSender replaces the function that delivers a message to one URL.
func (n *Notifier) SetSender(send func(rawURL, message string) error) {
	n.send = send
}

// Send dispatches req in the background. Errors are logged.
func (n *Notifier) Send(req Request) {
	if n == nil || req.Title == "" {
		return
	}

	urls := append([]string(nil), n.broadcast...)
	if req.UserID != 0 {
		u, err := models.NotifyURL(n.db, req.UserID)
		if err != nil {
			log.Printf("notify: load url for user %d: %v", req.UserID, err)
		} else if u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return
	}

	body := buildBody(req)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for _, u := range urls {
			if err := n.send(u, body); err != nil {
				log.Printf("notify: send to %q failed: %v", MaskURL(u), err)
			}
		}
	}()
}

// Wait blocks until every notification dispatched so far has been attempted.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// SendTest synchronously sends a test message to rawURL, returning any error so
// the profile page can report it.
func (n *Notifier) SendTest(rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}
	if err := n.send(rawURL, "LiftLog test: if you see this, notifications are working!"); err != nil {
		return fmt.Errorf("notify: send test to %s: %w", MaskURL(rawURL), err)
	}
	return nil
}

// ValidateURL reports whether Shoutrrr understands rawURL.
func ValidateURL(rawURL string) error {
	if _, err := shoutrrr.CreateSender(rawURL); err != nil {
		return fmt.Errorf("notify: invalid service url: %w", err)
	}
	return nil
}

// PersonalRecord announces that w beat the user's previous best for its
// exercise. hadPrevious is false for the first time an exercise is logged,
// which is not announced.
func (n *Notifier) PersonalRecord(w *models.Workout, previous float64, hadPrevious bool, unit string) {
	if !hadPrevious || w.Weight <= previous {
		return
	}
	msg := fmt.Sprintf("%s %s on %s (previous best %s %s)",
		formatWeight(w.Weight), unit, stats.FormatDate(w.Date), formatWeight(previous), unit)
	n.Send(Request{
		UserID:  w.UserID,
		Title:   "New personal record: " + w.Exercise,
		Message: msg,
		Link:    "/stats?exercise=" + url.QueryEscape(w.Exercise),
	})
}

// --- Helpers ---

// buildBody constructs the message body from a Request.
func buildBody(req Request) string {
	body := req.Title
	if req.Message != "" {
		body = fmt.Sprintf("%s\n%s", body, req.Message)
	}
	if req.Link != "" {
		body = fmt.Sprintf("%s\n%s", body, req.Link)
	}
	return body
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// parseURLs splits a comma-or-newline-separated URL string and trims whitespace.
func parseURLs(urlsStr string) []string {
	urlsStr = strings.ReplaceAll(urlsStr, "\n", ",")
	var urls []string
	for _, p := range strings.Split(urlsStr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// MaskURL hides credentials in a Shoutrrr URL for logs and display.
func MaskURL(u string) string {
	if i := strings.Index(u, "://"); i >= 0 && len(u) > i+3 {
		return u[:i+3] + "••••"
	}
	if len(u) <= 5 {
		return "••••"
	}
	return u[:5] + "••••"
}
