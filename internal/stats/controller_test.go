package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fetchCall struct {
	userID     int64
	start, end string
}

type fakeFetcher struct {
	mu      sync.Mutex
	records []Record
	err     error
	calls   []fetchCall
}

func (f *fakeFetcher) FetchWorkouts(_ context.Context, userID int64, start, end string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{userID: userID, start: start, end: end})
	if f.err != nil {
		return nil, f.err
	}
	var out []Record
	for _, r := range f.records {
		if start == "" || r.Date >= start {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
}

func newTestController(f Fetcher) *Controller {
	c := NewController(f, 7)
	c.SetClock(fixedClock)
	return c
}

func TestNewController_Idle(t *testing.T) {
	c := newTestController(&fakeFetcher{})
	snap := c.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("state = %s, want idle", snap.State)
	}
	if snap.Filter.Range != DefaultTimeRange {
		t.Errorf("range = %q, want %q", snap.Filter.Range, DefaultTimeRange)
	}
	if snap.Views == nil || len(snap.Views.Exercises) != 0 {
		t.Errorf("views = %+v, want empty", snap.Views)
	}
}

func TestController_Refresh(t *testing.T) {
	f := &fakeFetcher{records: []Record{
		{Date: "2024-03-10", Exercise: "Squat", Sets: 5, Reps: 5, Weight: 225},
		{Date: "2024-03-01", Exercise: "Bench", Sets: 3, Reps: 8, Weight: 155},
		{Date: "2023-01-01", Exercise: "Deadlift", Sets: 1, Reps: 5, Weight: 315},
	}}
	c := newTestController(f)

	snap, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap.State != StateReady {
		t.Errorf("state = %s, want ready", snap.State)
	}
	if len(f.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(f.calls))
	}
	if call := f.calls[0]; call.userID != 7 || call.start != "2023-12-15" || call.end != "" {
		t.Errorf("fetch call = %+v, want user 7 from 2023-12-15", call)
	}
	if snap.Records != 2 {
		t.Errorf("records = %d, want 2", snap.Records)
	}
	// Most recent record's exercise is auto-selected.
	if snap.Filter.Exercise != "Squat" {
		t.Errorf("exercise = %q, want Squat", snap.Filter.Exercise)
	}
	if snap.Views.ExerciseProgress == nil || snap.Views.ExerciseProgress.Exercise != "Squat" {
		t.Errorf("progress = %+v, want Squat series", snap.Views.ExerciseProgress)
	}
}

func TestController_SetFilter(t *testing.T) {
	f := &fakeFetcher{records: []Record{
		{Date: "2024-03-10", Exercise: "Squat", Sets: 5, Reps: 5, Weight: 225},
		{Date: "2024-03-01", Exercise: "Bench", Sets: 3, Reps: 8, Weight: 155},
		{Date: "2023-01-01", Exercise: "Deadlift", Sets: 1, Reps: 5, Weight: 315},
	}}
	c := newTestController(f)
	ctx := context.Background()

	if _, err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	t.Run("exercise change recomputes without fetching", func(t *testing.T) {
		before := f.callCount()
		snap, err := c.SetFilter(ctx, Filter{Range: RangeThreeMonths, Exercise: "Bench"})
		if err != nil {
			t.Fatalf("SetFilter: %v", err)
		}
		if f.callCount() != before {
			t.Errorf("calls = %d, want %d", f.callCount(), before)
		}
		if p := snap.Views.ExerciseProgress; p == nil || p.Exercise != "Bench" {
			t.Errorf("progress = %+v, want Bench", p)
		}
	})

	t.Run("range change refetches", func(t *testing.T) {
		before := f.callCount()
		snap, err := c.SetFilter(ctx, Filter{Range: RangeAll, Exercise: "Bench"})
		if err != nil {
			t.Fatalf("SetFilter: %v", err)
		}
		if f.callCount() != before+1 {
			t.Errorf("calls = %d, want %d", f.callCount(), before+1)
		}
		if snap.Records != 3 {
			t.Errorf("records = %d, want 3", snap.Records)
		}
		if snap.Filter.Exercise != "Bench" {
			t.Errorf("exercise = %q, want Bench kept", snap.Filter.Exercise)
		}
	})

	t.Run("invalid range rejected", func(t *testing.T) {
		before := c.Snapshot()
		calls := f.callCount()
		_, err := c.SetFilter(ctx, Filter{Range: "5y"})
		if !errors.Is(err, ErrInvalidTimeRange) {
			t.Fatalf("err = %v, want ErrInvalidTimeRange", err)
		}
		after := c.Snapshot()
		if after.Filter != before.Filter || after.State != before.State {
			t.Errorf("state changed on invalid range: %+v -> %+v", before.Filter, after.Filter)
		}
		if f.callCount() != calls {
			t.Error("invalid range triggered a fetch")
		}
	})

	t.Run("empty range uses default", func(t *testing.T) {
		snap, err := c.SetFilter(ctx, Filter{})
		if err != nil {
			t.Fatalf("SetFilter: %v", err)
		}
		if snap.Filter.Range != DefaultTimeRange {
			t.Errorf("range = %q, want default", snap.Filter.Range)
		}
	})
}

func TestController_FetchErrorResetsViews(t *testing.T) {
	f := &fakeFetcher{records: []Record{
		{Date: "2024-03-10", Exercise: "Squat", Sets: 5, Reps: 5, Weight: 225},
	}}
	c := newTestController(f)
	ctx := context.Background()

	if _, err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	boom := errors.New("connection refused")
	f.mu.Lock()
	f.err = boom
	f.mu.Unlock()

	snap, err := c.Refresh(ctx)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err does not wrap cause: %v", err)
	}
	if snap.State != StateError {
		t.Errorf("state = %s, want error", snap.State)
	}
	if snap.Err == nil {
		t.Error("snapshot error not set")
	}
	if len(snap.Views.PersonalRecords) != 0 || len(snap.Views.Exercises) != 0 || snap.Views.ExerciseProgress != nil {
		t.Errorf("views not reset: %+v", snap.Views)
	}

	f.mu.Lock()
	f.err = nil
	f.mu.Unlock()
	snap, err = c.Refresh(ctx)
	if err != nil || snap.State != StateReady || snap.Err != nil {
		t.Errorf("recovery: state = %s err = %v", snap.State, err)
	}
}

// blockingFetcher holds each call until its release channel is closed.
type blockingFetcher struct {
	mu      sync.Mutex
	started chan int
	release []chan struct{}
	results [][]Record
}

func (b *blockingFetcher) FetchWorkouts(ctx context.Context, _ int64, _, _ string) ([]Record, error) {
	b.mu.Lock()
	n := len(b.release)
	ch := make(chan struct{})
	b.release = append(b.release, ch)
	b.mu.Unlock()

	b.started <- n
	select {
	case <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.results[n], nil
}

func (b *blockingFetcher) releaseCall(n int) {
	b.mu.Lock()
	ch := b.release[n]
	b.mu.Unlock()
	close(ch)
}

func TestController_DiscardsStaleResponse(t *testing.T) {
	b := &blockingFetcher{
		started: make(chan int, 2),
		results: [][]Record{
			{{Date: "2023-06-01", Exercise: "Deadlift", Sets: 1, Reps: 5, Weight: 315}},
			{{Date: "2024-03-10", Exercise: "Squat", Sets: 5, Reps: 5, Weight: 225}},
		},
	}
	c := newTestController(b)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := make(chan Snapshot, 1)
	go func() {
		snap, _ := c.SetFilter(ctx, Filter{Range: RangeAll})
		first <- snap
	}()
	<-b.started

	second := make(chan Snapshot, 1)
	go func() {
		snap, _ := c.SetFilter(ctx, Filter{Range: RangeOneMonth})
		second <- snap
	}()
	<-b.started

	// The newer request completes first, then the older one.
	b.releaseCall(1)
	<-second
	b.releaseCall(0)
	<-first

	snap := c.Snapshot()
	if snap.State != StateReady {
		t.Errorf("state = %s, want ready", snap.State)
	}
	if snap.Filter.Range != RangeOneMonth {
		t.Errorf("range = %q, want 1m", snap.Filter.Range)
	}
	if len(snap.Views.Exercises) != 1 || snap.Views.Exercises[0] != "Squat" {
		t.Errorf("exercises = %v, want [Squat] from the newer fetch", snap.Views.Exercises)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateIdle:    "idle",
		StateLoading: "loading",
		StateReady:   "ready",
		StateError:   "error",
		State(9):     "State(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
