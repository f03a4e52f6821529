package scan

import (
	"context"
	"time"

	"github.com/autodoc-sh/autodoc/internal/core/logger"
)

// Scheduler triggers a full scan cycle at a fixed interval.
type Scheduler struct {
	runner   *Runner
	interval time.Duration
	log      *logger.Logger
}

// NewScheduler builds a scheduler. intervalHours values below 1 are clamped
// to 1.
func NewScheduler(runner *Runner, intervalHours int, log *logger.Logger) *Scheduler {
	if intervalHours < 1 {
		intervalHours = 1
	}
	return &Scheduler{
		runner:   runner,
		interval: time.Duration(intervalHours) * time.Hour,
		log:      log,
	}
}

// Run blocks until ctx is cancelled, firing a full scan every interval.
// The first cycle runs one interval after start, not immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scan scheduler started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scan scheduler stopped")
			return
		case <-ticker.C:
			s.log.Info("scheduled scan starting")
			s.runner.RunAll(ctx, true)
		}
	}
}
