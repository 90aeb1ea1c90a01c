package database

import (
	"database/sql"
	"errors"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := RunMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

func TestRunMigrations_CreatesTables(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"users", "sessions", "exercises", "workouts", "workout_templates", "metrics"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if v < 2 {
		t.Errorf("schema version = %d, want >= 2", v)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestRunMigrations_SeedsPresetExercises(t *testing.T) {
	db := openTestDB(t)

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM exercises WHERE is_preset = 1`).Scan(&count); err != nil {
		t.Fatalf("count presets: %v", err)
	}
	if count == 0 {
		t.Error("expected preset exercises to be seeded")
	}
}

func TestWorkoutDateMustBeCanonical(t *testing.T) {
	db := openTestDB(t)

	res, err := db.Exec(`INSERT INTO users (email, password_hash) VALUES ('a@example.com', 'x')`)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	uid, _ := res.LastInsertId()

	_, err = db.Exec(`INSERT INTO workouts (user_id, date, exercise, sets, reps, weight) VALUES (?, '2024-01-01T00:00:00Z', 'Bench', 3, 10, 100)`, uid)
	if err == nil {
		t.Error("expected CHECK failure for non-canonical date")
	}
	_, err = db.Exec(`INSERT INTO workouts (user_id, date, exercise, sets, reps, weight) VALUES (?, '2024-01-01', 'Bench', 0, 10, 100)`, uid)
	if err == nil {
		t.Error("expected CHECK failure for zero sets")
	}
	_, err = db.Exec(`INSERT INTO workouts (user_id, date, exercise, sets, reps, weight) VALUES (?, '2024-01-01', 'Bench', 3, 10, 100)`, uid)
	if err != nil {
		t.Errorf("valid insert failed: %v", err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	boom := errors.New("boom")

	err := WithTx(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES ('tx@example.com', 'x')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	if count != 0 {
		t.Errorf("users = %d after rollback, want 0", count)
	}
}
