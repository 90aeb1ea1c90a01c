package scheduler

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/carpenike/liftlog/internal/models"
	"github.com/carpenike/liftlog/internal/photos"
)

// DefaultInterval is used when no positive interval is configured.
const DefaultInterval = 24 * time.Hour

// PhotoGracePeriod protects freshly uploaded photos whose metric row may
// not be committed yet.
const PhotoGracePeriod = time.Hour

// Status holds the result of the last maintenance run.
type Status struct {
	LastRun        time.Time
	NextRun        time.Time
	SessionsPurged int64
	PhotosRemoved  int
	IntervalHours  int
}

// Scheduler runs periodic maintenance tasks in the background.
type Scheduler struct {
	db       *sql.DB
	photos   *photos.Store
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}

	mu     sync.RWMutex
	status Status
}

// New creates a Scheduler. A nil photo store disables orphan photo cleanup.
func New(db *sql.DB, store *photos.Store, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		db:       db,
		photos:   store,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins running maintenance tasks. It runs an initial pass immediately,
// then repeats at the configured interval. Call Stop to shut down gracefully.
func (s *Scheduler) Start() {
	go s.run()
	log.Printf("scheduler: started, interval %s", s.interval)
}

// Stop signals the scheduler to shut down and waits for it to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// Status returns the result of the last maintenance run.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Scheduler) run() {
	defer close(s.done)

	s.runMaintenance()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runMaintenance()
		case <-s.stop:
			return
		}
	}
}

// runMaintenance executes all periodic cleanup tasks.
func (s *Scheduler) runMaintenance() {
	purged := s.purgeExpiredSessions()
	removed := s.removeOrphanPhotos()

	now := s.now()
	s.mu.Lock()
	s.status = Status{
		LastRun:        now,
		NextRun:        now.Add(s.interval),
		SessionsPurged: purged,
		PhotosRemoved:  removed,
		IntervalHours:  int(s.interval / time.Hour),
	}
	s.mu.Unlock()
}

func (s *Scheduler) purgeExpiredSessions() int64 {
	deleted, err := models.DeleteExpiredSessions(s.db)
	if err != nil {
		log.Printf("scheduler: purge expired sessions: %v", err)
		return 0
	}
	if deleted > 0 {
		log.Printf("scheduler: purged %d expired session(s)", deleted)
	}
	return deleted
}

// removeOrphanPhotos deletes photo files that no metric references and that
// are older than PhotoGracePeriod.
func (s *Scheduler) removeOrphanPhotos() int {
	if s.photos == nil {
		return 0
	}
	referenced, err := models.ListPhotoPaths(s.db)
	if err != nil {
		log.Printf("scheduler: list photo paths: %v", err)
		return 0
	}
	files, err := s.photos.List()
	if err != nil {
		log.Printf("scheduler: list photo files: %v", err)
		return 0
	}

	cutoff := s.now().Add(-PhotoGracePeriod)
	removed := 0
	for _, f := range files {
		if referenced[f.Name] || f.ModTime.After(cutoff) {
			continue
		}
		if err := s.photos.Remove(f.Name); err != nil {
			log.Printf("scheduler: remove orphan photo %s: %v", f.Name, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Printf("scheduler: removed %d orphan photo(s)", removed)
	}
	return removed
}
