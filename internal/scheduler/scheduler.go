package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher runs one refresh cycle over all tracked cities.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// Scheduler periodically refreshes cached forecasts for every tracked city.
// It runs for the lifetime of the process; individual fetch failures inside
// a cycle are handled by the Refresher and never stop future cycles.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	log       *slog.Logger
}

// New creates a new Scheduler.
func New(refresher Refresher, interval time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	if _, err := s.scheduler.Every(minutes).Minutes().Do(s.runCycle); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// runCycle is the job body; tests invoke it directly instead of waiting on
// wall-clock time.
func (s *Scheduler) runCycle() {
	s.log.Info("refresh cycle started")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.refresher.RefreshAll(ctx); err != nil {
		s.log.Error("refresh cycle failed", "error", err)
		return
	}
	s.log.Info("refresh cycle completed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
