package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for periodic full rebuilds. Scheduled rebuilds catch
// changes the filesystem watcher cannot see (clock-dependent content, a source
// directory on a network mount).
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a scheduler that triggers rebuild every interval.
func NewScheduler(interval time.Duration, rebuild func()) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(rebuild),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return nil, fmt.Errorf("create periodic rebuild job: %w", err)
	}

	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting rebuild scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping rebuild scheduler")
	return s.scheduler.Shutdown()
}
