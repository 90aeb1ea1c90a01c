package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/carpenike/liftlog/internal/models"
)

type contextKey string

// UserContextKey is the request context key holding the signed-in *models.User.
const UserContextKey contextKey = "user"

// SessionUserKey is the session key holding the signed-in user's ID.
const SessionUserKey = "userID"

// RequireAuth sends anonymous visitors to the landing page and puts the
// signed-in user into the request context. The session must already be
// loaded by scs LoadAndSave.
func RequireAuth(sm *scs.SessionManager, db *sql.DB, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := sm.GetInt64(r.Context(), SessionUserKey)
		if userID == 0 {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		user, err := models.GetUserByID(db, userID)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				log.Printf("middleware: load user %d: %v", userID, err)
			}
			if err := sm.Destroy(r.Context()); err != nil {
				log.Printf("middleware: destroy session: %v", err)
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RedirectIfAuthenticated sends signed-in users from the auth pages to the
// dashboard.
func RedirectIfAuthenticated(sm *scs.SessionManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.GetInt64(r.Context(), SessionUserKey) != 0 {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext retrieves the authenticated user from the request context.
// Returns nil if no user is set (should not happen behind RequireAuth).
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(UserContextKey).(*models.User)
	return u
}
