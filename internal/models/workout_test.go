package models

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/carpenike/liftlog/internal/stats"
)

func TestWorkoutInputValidate(t *testing.T) {
	valid := WorkoutInput{Date: "2024-01-01", Exercise: "Bench Press", Sets: 3, Reps: 10, Weight: 135}

	tests := []struct {
		name    string
		mutate  func(*WorkoutInput)
		wantErr bool
	}{
		{"valid", func(*WorkoutInput) {}, false},
		{"bodyweight", func(in *WorkoutInput) { in.Weight = 0 }, false},
		{"timestamp date", func(in *WorkoutInput) { in.Date = "2024-01-01T08:00:00Z" }, false},
		{"bad date", func(in *WorkoutInput) { in.Date = "01/01/2024" }, true},
		{"impossible date", func(in *WorkoutInput) { in.Date = "2024-02-30" }, true},
		{"blank exercise", func(in *WorkoutInput) { in.Exercise = "   " }, true},
		{"zero sets", func(in *WorkoutInput) { in.Sets = 0 }, true},
		{"zero reps", func(in *WorkoutInput) { in.Reps = 0 }, true},
		{"negative weight", func(in *WorkoutInput) { in.Weight = -5 }, true},
		{"NaN weight", func(in *WorkoutInput) { in.Weight = math.NaN() }, true},
		{"too many sets", func(in *WorkoutInput) { in.Sets = MaxSets + 1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := in.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWorkoutInputValidate_Normalizes(t *testing.T) {
	in, err := WorkoutInput{Date: "2024-01-01T08:00:00Z", Exercise: "  Squat ", Sets: 5, Reps: 5, Weight: 225, Notes: " easy "}.Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if in.Date != "2024-01-01" || in.Exercise != "Squat" || in.Notes != "easy" {
		t.Errorf("normalized = %+v", in)
	}
}

func TestWorkoutCRUD(t *testing.T) {
	db := testDB(t)
	u := seedUser(t, db, "crud@example.com")
	other := seedUser(t, db, "other@example.com")

	w := seedWorkout(t, db, u.ID, "2024-01-01", "Bench Press", 3, 10, 135)
	if w.Volume() != 4050 {
		t.Errorf("volume = %f, want 4050", w.Volume())
	}

	t.Run("get", func(t *testing.T) {
		got, err := GetWorkoutByID(db, u.ID, w.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Exercise != "Bench Press" || got.Date != "2024-01-01" {
			t.Errorf("workout = %+v", got)
		}
	})

	t.Run("other user cannot see it", func(t *testing.T) {
		if _, err := GetWorkoutByID(db, other.ID, w.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
		if err := DeleteWorkout(db, other.ID, w.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("delete err = %v, want ErrNotFound", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		updated, err := UpdateWorkout(db, u.ID, w.ID, WorkoutInput{Date: "2024-01-02", Exercise: "Bench Press", Sets: 4, Reps: 8, Weight: 145, Notes: "felt strong"})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Sets != 4 || updated.Weight != 145 || updated.Notes.String != "felt strong" {
			t.Errorf("updated = %+v", updated)
		}
	})

	t.Run("update invalid", func(t *testing.T) {
		_, err := UpdateWorkout(db, u.ID, w.ID, WorkoutInput{Date: "2024-01-02", Exercise: "Bench Press", Sets: 0, Reps: 8})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := DeleteWorkout(db, u.ID, w.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := GetWorkoutByID(db, u.ID, w.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestListWorkouts(t *testing.T) {
	db := testDB(t)
	u := seedUser(t, db, "list@example.com")
	other := seedUser(t, db, "someone@example.com")

	seedWorkout(t, db, u.ID, "2024-01-01", "Bench Press", 3, 10, 100)
	seedWorkout(t, db, u.ID, "2024-02-15", "Squat", 5, 5, 200)
	seedWorkout(t, db, u.ID, "2024-03-01", "Deadlift", 1, 5, 300)
	seedWorkout(t, db, other.ID, "2024-02-20", "Curl", 3, 12, 30)

	t.Run("all newest first", func(t *testing.T) {
		ws, err := ListWorkouts(db, u.ID, "", "")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(ws) != 3 {
			t.Fatalf("len = %d, want 3", len(ws))
		}
		if ws[0].Date != "2024-03-01" || ws[2].Date != "2024-01-01" {
			t.Errorf("order = %s..%s", ws[0].Date, ws[2].Date)
		}
	})

	t.Run("inclusive bounds", func(t *testing.T) {
		ws, err := ListWorkouts(db, u.ID, "2024-02-15", "2024-03-01")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(ws) != 2 {
			t.Errorf("len = %d, want 2", len(ws))
		}
	})

	t.Run("count", func(t *testing.T) {
		if n, _ := CountWorkouts(db, u.ID, "2024-02-01", ""); n != 2 {
			t.Errorf("count = %d, want 2", n)
		}
	})

	t.Run("recent", func(t *testing.T) {
		ws, _ := RecentWorkouts(db, u.ID, 2)
		if len(ws) != 2 || ws[0].Exercise != "Deadlift" {
			t.Errorf("recent = %v", ws)
		}
	})
}

func TestListWorkoutPage(t *testing.T) {
	db := testDB(t)
	u := seedUser(t, db, "page@example.com")
	for i := 0; i < WorkoutPageSize+3; i++ {
		seedWorkout(t, db, u.ID, "2024-01-01", "Row", 3, 10, float64(50+i))
	}

	page, err := ListWorkoutPage(db, u.ID, 0)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page.Workouts) != WorkoutPageSize || !page.HasMore {
		t.Errorf("first page len = %d hasMore = %v", len(page.Workouts), page.HasMore)
	}

	page, err = ListWorkoutPage(db, u.ID, page.NextOffset())
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page.Workouts) != 3 || page.HasMore {
		t.Errorf("second page len = %d hasMore = %v", len(page.Workouts), page.HasMore)
	}
}

func TestCreateWorkoutsBatch(t *testing.T) {
	db := testDB(t)
	u := seedUser(t, db, "batch@example.com")

	t.Run("all rows inserted", func(t *testing.T) {
		n, err := CreateWorkoutsBatch(db, u.ID, []WorkoutInput{
			{Date: "2024-01-01", Exercise: "Squat", Sets: 5, Reps: 5, Weight: 200},
			{Date: "2024-01-01", Exercise: "Bench Press", Sets: 5, Reps: 5, Weight: 150},
		})
		if err != nil {
			t.Fatalf("batch: %v", err)
		}
		if n != 2 {
			t.Errorf("n = %d, want 2", n)
		}
	})

	t.Run("invalid row writes nothing", func(t *testing.T) {
		before, _ := CountWorkouts(db, u.ID, "", "")
		_, err := CreateWorkoutsBatch(db, u.ID, []WorkoutInput{
			{Date: "2024-01-02", Exercise: "Squat", Sets: 5, Reps: 5, Weight: 200},
			{Date: "2024-01-02", Exercise: "", Sets: 5, Reps: 5},
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
		if after, _ := CountWorkouts(db, u.ID, "", ""); after != before {
			t.Errorf("count = %d, want %d", after, before)
		}
	})
}

func TestBestWeight(t *testing.T) {
	db := testDB(t)
	u := seedUser(t, db, "best@example.com")

	if _, ok, err := BestWeight(db, u.ID, "Squat"); err != nil || ok {
		t.Errorf("ok = %v err = %v, want no best", ok, err)
	}

	seedWorkout(t, db, u.ID, "2024-01-01", "Squat", 5, 5, 200)
	seedWorkout(t, db, u.ID, "2024-01-08", "Squat", 5, 5, 215)
	seedWorkout(t, db, u.ID, "2024-01-15", "Squat", 5, 5, 210)

	best, ok, err := BestWeight(db, u.ID, "Squat")
	if err != nil || !ok || best != 215 {
		t.Errorf("best = %f ok = %v err = %v, want 215", best, ok, err)
	}
}

func TestWorkoutSource(t *testing.T) {
	db := testDB(t)
	u := seedUser(t, db, "source@example.com")

	seedWorkout(t, db, u.ID, "2024-01-01", "Bench", 3, 10, 100)
	seedWorkout(t, db, u.ID, "2024-01-01", "Bench", 3, 10, 120)
	seedWorkout(t, db, u.ID, "2024-01-02", "Squat", 5, 5, 200)

	var f stats.Fetcher = WorkoutSource{DB: db}
	records, err := f.FetchWorkouts(context.Background(), u.ID, "", "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 3 || records[0].Exercise != "Squat" {
		t.Fatalf("records = %+v, want 3 newest first", records)
	}

	v := stats.Compute(records, "Bench")
	if len(v.PersonalRecords) != 2 || v.PersonalRecords[0].Weight != 200 || v.PersonalRecords[1].Weight != 120 {
		t.Errorf("personal records = %+v", v.PersonalRecords)
	}
	if len(v.VolumeData) != 2 || v.VolumeData[0].Volume != 6600 || v.VolumeData[1].Volume != 5000 {
		t.Errorf("volume = %+v", v.VolumeData)
	}

	records, _ = f.FetchWorkouts(context.Background(), u.ID, "2024-01-02", "")
	if len(records) != 1 {
		t.Errorf("bounded fetch = %d records, want 1", len(records))
	}
}
