package models

import (
	"database/sql"
	"fmt"
)

// DeleteExpiredSessions removes scs sessions whose expiry has passed.
// Expiry is stored as a Julian day number by the sqlite3store.
func DeleteExpiredSessions(db *sql.DB) (int64, error) {
	res, err := db.Exec(`DELETE FROM sessions WHERE expiry < julianday('now')`)
	if err != nil {
		return 0, fmt.Errorf("models: delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
