package expiry

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/trudslev/kofi-members/app/models"
	"github.com/trudslev/kofi-members/internal/pkg/membership"
)

// DefaultInterval is how often the expiry sweep runs.
const DefaultInterval = 24 * time.Hour

// Scheduler runs the expiry sweep on a fixed interval in the background.
type Scheduler struct {
	db       *gorm.DB
	checker  *Checker
	log      *logrus.Logger
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewScheduler creates a scheduler sweeping at the given interval; zero
// means DefaultInterval.
func NewScheduler(db *gorm.DB, log *logrus.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		db:       db,
		checker:  NewChecker(membership.NewRepository(db), log),
		log:      log,
		interval: interval,
	}
}

// Start launches the background sweep loop. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.stopCh = make(chan struct{})
	s.ticker = time.NewTicker(s.interval)
	s.running = true

	s.wg.Add(1)
	go s.worker()
	s.log.WithField("interval", s.interval.String()).Info("Role expiry scheduler started")
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.ticker.Stop()
	close(s.stopCh)
	s.running = false
	s.wg.Wait()
	s.log.Info("Role expiry scheduler stopped")
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce performs a single sweep against the current settings. Settings
// are reloaded on every run so admin changes apply without a restart.
func (s *Scheduler) RunOnce() {
	opts, err := models.LoadOptions(s.db)
	if err != nil {
		s.log.WithField("error", err.Error()).Error("Failed to load settings for expiry sweep")
		return
	}
	if err := s.checker.RemoveExpiredRoles(opts); err != nil {
		s.log.WithField("error", err.Error()).Error("Expiry sweep reported errors")
	}
}
