package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/jobradar/internal/pipeline"
)

// Poller runs one report cycle.
type Poller interface {
	Poll(ctx context.Context) (pipeline.Result, error)
}

// Scheduler owns the watch loop: one cycle now, then one per interval. Each
// cycle is a fresh, independent pipeline run.
type Scheduler struct {
	poller   Poller
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that polls at the given interval.
func NewScheduler(p Poller, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		poller:   p,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. It returns nil when ctx is cancelled. A failed cycle
// is logged and the next one runs on schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	res, err := s.poller.Poll(ctx)
	if err != nil {
		s.logger.Error("poll cycle failed", "error", err)
		return
	}
	s.logger.Debug("poll cycle done",
		"duration", time.Since(start).Round(time.Millisecond),
		"commutable", res.TotalFiltered,
		"source_errors", len(res.Errors),
	)
}
