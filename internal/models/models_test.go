package models

import (
	"database/sql"
	"testing"

	"github.com/carpenike/liftlog/internal/database"
)

// testDB creates a fresh in-memory SQLite database with migrations applied.
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

// seedUser creates a user with a fixed password.
func seedUser(t testing.TB, db *sql.DB, email string) *User {
	t.Helper()
	u, err := CreateUser(db, email, "password123", "")
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

// seedWorkout logs a workout, failing the test on error.
func seedWorkout(t testing.TB, db *sql.DB, userID int64, date, exercise string, sets, reps int, weight float64) *Workout {
	t.Helper()
	w, err := CreateWorkout(db, userID, WorkoutInput{Date: date, Exercise: exercise, Sets: sets, Reps: reps, Weight: weight})
	if err != nil {
		t.Fatalf("seed workout %s %s: %v", date, exercise, err)
	}
	return w
}
