// Package jobs runs the background work of the engine: auto-assignment of
// pending reviews and the periodic timeout sweep.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sevigo/mod-warden/internal/core"
	"github.com/sevigo/mod-warden/internal/lifecycle"
)

// Dispatcher implements core.AssignmentDispatcher and manages a pool of
// worker goroutines performing admission-controlled assignment.
type Dispatcher struct {
	engine     *lifecycle.Engine
	jobQueue   chan string // Queue of review IDs awaiting assignment.
	maxWorkers int
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If maxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(engine *lifecycle.Engine, maxWorkers int, logger *slog.Logger) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	d := &Dispatcher{
		engine:     engine,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan string, 100),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

var _ core.AssignmentDispatcher = (*Dispatcher)(nil)

// startWorkers launches maxWorkers goroutines to process jobs from the queue.
func (d *Dispatcher) startWorkers() {
	for i := 0; i < d.maxWorkers; i++ {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes review IDs from the queue until it's closed.
func (d *Dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting assignment worker", "id", workerID)

	for reviewID := range d.jobQueue {
		d.processReview(workerID, reviewID)
	}

	d.logger.Info("shutting down assignment worker", "id", workerID)
}

// processReview attempts one auto-assignment. Capacity exhaustion is
// expected pressure, not an error; the review stays PENDING and the next
// sweep or creation re-dispatches it.
func (d *Dispatcher) processReview(workerID int, reviewID string) {
	result, err := d.engine.AutoAssign(context.Background(), reviewID)
	switch {
	case errors.Is(err, core.ErrModeratorUnavailable):
		d.logger.Warn("no moderator available, review stays pending",
			"worker_id", workerID, "review_id", reviewID)
	case errors.Is(err, core.ErrConflict):
		d.logger.Info("review moved concurrently, skipping assignment",
			"worker_id", workerID, "review_id", reviewID)
	case err != nil:
		d.logger.Error("assignment job failed",
			"worker_id", workerID, "review_id", reviewID, "error", err)
	case result != nil:
		d.logger.Info("review auto-assigned",
			"worker_id", workerID,
			"review_id", reviewID,
			"moderator_id", result.ModeratorID,
			"timeout_at", result.TimeoutAt,
		)
	}
}

// Dispatch queues a review for assignment by a worker.
func (d *Dispatcher) Dispatch(_ context.Context, reviewID string) error {
	select {
	case d.jobQueue <- reviewID:
		return nil
	default:
		return fmt.Errorf("job queue is full, cannot accept new assignment job")
	}
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to finish.
func (d *Dispatcher) Stop() {
	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	close(d.jobQueue)
	d.wg.Wait()
	d.logger.Info("all assignment jobs have finished")
}
