package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/sevigo/mod-warden/internal/lifecycle"
	"github.com/sevigo/mod-warden/internal/storage"
)

// Sweeper runs the timeout sweep on a cron schedule and feeds reviews that
// land back in PENDING to the assignment dispatcher.
type Sweeper struct {
	engine     *lifecycle.Engine
	reviews    storage.ReviewStore
	dispatcher *Dispatcher
	cron       *cron.Cron
	schedule   string
	running    sync.Mutex // Skips a pass while the previous one still runs.
	logger     *slog.Logger
}

// NewSweeper creates a Sweeper with the given cron schedule, e.g. "@every 5m".
func NewSweeper(engine *lifecycle.Engine, reviews storage.ReviewStore, dispatcher *Dispatcher, schedule string, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		engine:     engine,
		reviews:    reviews,
		dispatcher: dispatcher,
		cron:       cron.New(),
		schedule:   schedule,
		logger:     logger,
	}
}

// Start registers the sweep with the cron scheduler and starts it.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("timeout sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule timeout sweep %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("timeout sweeper started", "schedule", s.schedule)
	return nil
}

// RunOnce executes a single sweep pass and re-dispatches any review left
// assignable, covering both requeued urgent reviews and reviews whose
// earlier dispatch found no capacity. Only one pass runs at a time; a call
// that overlaps a running pass is skipped, whether it came from the cron
// schedule or the manual trigger.
func (s *Sweeper) RunOnce(ctx context.Context) (lifecycle.SweepResult, error) {
	if !s.running.TryLock() {
		s.logger.Warn("previous sweep still running, skipping this pass")
		return lifecycle.SweepResult{}, nil
	}
	defer s.running.Unlock()

	result, err := s.engine.CheckTimeouts(ctx)
	if err != nil {
		return result, err
	}
	s.logger.Info("timeout sweep finished",
		"processed", result.Processed,
		"reassigned", result.Reassigned,
		"expired", result.Expired,
	)

	assignable, err := s.reviews.ListAssignable(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list assignable reviews: %w", err)
	}
	for i := range assignable {
		if err := s.dispatcher.Dispatch(ctx, assignable[i].ID); err != nil {
			s.logger.Warn("could not queue review for assignment",
				"review_id", assignable[i].ID, "error", err)
		}
	}
	return result, nil
}

// Stop halts the scheduler, waiting for a running pass to finish.
func (s *Sweeper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("timeout sweeper stopped")
}
