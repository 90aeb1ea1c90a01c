package stats

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Fetcher loads workout records for a user, optionally bounded by inclusive
// YYYY-MM-DD dates (empty means unbounded), ordered by date descending.
type Fetcher interface {
	FetchWorkouts(ctx context.Context, userID int64, startDate, endDate string) ([]Record, error)
}

// FetchError wraps a failure from the Fetcher. It is surfaced to the user as
// is; the controller never retries.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("stats: fetch workouts: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// State is the lifecycle of the controller's current data.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Filter is the user-selected focus of the stats page.
type Filter struct {
	Range    TimeRange `json:"range"`
	Exercise string    `json:"exercise"`
}

// Snapshot is a point-in-time copy of the controller's state.
type Snapshot struct {
	State   State  `json:"-"`
	Filter  Filter `json:"filter"`
	Views   *Views `json:"views"`
	Err     error  `json:"-"`
	Records int    `json:"records"`
}

// Controller owns the filter state for one user's stats view. Changing the
// filter or refreshing triggers a fetch followed by recomputation of every
// view. Each fetch takes a request token; a response that arrives after a
// newer fetch has started is discarded, so out-of-order completions never
// overwrite fresher data. Safe for concurrent use.
type Controller struct {
	fetcher Fetcher
	userID  int64
	now     func() time.Time

	mu      sync.Mutex
	token   uint64
	state   State
	filter  Filter
	records []Record
	views   *Views
	err     error
}

// NewController returns an idle controller for userID with the default range.
func NewController(f Fetcher, userID int64) *Controller {
	return &Controller{
		fetcher: f,
		userID:  userID,
		now:     time.Now,
		state:   StateIdle,
		filter:  Filter{Range: DefaultTimeRange},
		views:   EmptyViews(),
	}
}

// SetClock overrides the reference time used to resolve time ranges.
func (c *Controller) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// SetFilter replaces the filter and reloads. An invalid range is rejected
// before any state changes.
func (c *Controller) SetFilter(ctx context.Context, f Filter) (Snapshot, error) {
	r, err := ParseTimeRange(string(f.Range))
	if err != nil {
		return c.Snapshot(), err
	}
	f.Range = r

	c.mu.Lock()
	refetch := c.state != StateReady || c.filter.Range != f.Range
	c.filter = f
	if !refetch {
		// Only the selected exercise changed: recompute from the records
		// already held.
		c.selectDefaultExerciseLocked()
		c.views = Compute(c.records, c.filter.Exercise)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// Refresh fetches records for the current filter and recomputes every view.
// On failure the state becomes StateError, the views are reset to empty and
// the returned error is a *FetchError.
func (c *Controller) Refresh(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	c.token++
	token := c.token
	c.state = StateLoading
	start := c.filter.Range.StartDate(c.now())
	c.mu.Unlock()

	records, fetchErr := c.fetcher.FetchWorkouts(ctx, c.userID, start, "")

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token {
		// Superseded by a newer request; keep whatever it produces.
		return c.snapshotLocked(), nil
	}

	if fetchErr != nil {
		c.state = StateError
		c.err = &FetchError{Err: fetchErr}
		c.records = nil
		c.views = EmptyViews()
		return c.snapshotLocked(), c.err
	}

	c.state = StateReady
	c.err = nil
	c.records = records
	c.selectDefaultExerciseLocked()
	c.views = Compute(records, c.filter.Exercise)
	return c.snapshotLocked(), nil
}

// selectDefaultExerciseLocked picks the exercise of the most recent record
// when none is selected.
func (c *Controller) selectDefaultExerciseLocked() {
	if c.filter.Exercise == "" && len(c.records) > 0 {
		c.filter.Exercise = c.records[0].Exercise
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:   c.state,
		Filter:  c.filter,
		Views:   c.views,
		Err:     c.err,
		Records: len(c.records),
	}
}
