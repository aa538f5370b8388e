package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/mod-warden/internal/core"
	"github.com/sevigo/mod-warden/internal/ledger"
	"github.com/sevigo/mod-warden/internal/lifecycle"
	"github.com/sevigo/mod-warden/internal/storage"
	"github.com/sevigo/mod-warden/internal/workload"
)

type trustStub struct{}

func (trustStub) GetPriorAnalysis(_ context.Context, _ string) (core.PriorAnalysis, error) {
	return core.PriorAnalysis{TrustScore: 40, Confidence: 0.7}, nil
}
func (trustStub) TriggerRecalculation(_ context.Context, _ string) error { return nil }

type notifierStub struct{}

func (notifierStub) NotifyModerator(_ context.Context, _, _ string) error { return nil }
func (notifierStub) NotifyTimeout(_ context.Context, _ string) error      { return nil }
func (notifierStub) AlertCapacityExhausted(_ context.Context, _ string, _ core.Priority) error {
	return nil
}

func newJobsFixture(t *testing.T) (*lifecycle.Engine, *storage.MemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStore()
	store.PutModerator(core.ModeratorProfile{ID: "mod-1", Status: core.ModeratorActive, Role: core.RoleSenior})

	auditLedger := ledger.New(store, "mod-warden-test", logger)
	registry := workload.NewRegistry(store.Moderators(), store, logger)
	return lifecycle.NewEngine(store, store, auditLedger, registry, trustStub{}, notifierStub{}, nil, logger), store
}

func TestDispatcher_AssignsQueuedReview(t *testing.T) {
	ctx := context.Background()
	engine, store := newJobsFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	d := NewDispatcher(engine, 2, logger)
	defer d.Stop()

	review, err := engine.Create(ctx, "subj-1", core.PriorityNormal)
	require.NoError(t, err)
	require.NoError(t, d.Dispatch(ctx, review.ID))

	assert.Eventually(t, func() bool {
		stored, err := store.Get(ctx, review.ID)
		return err == nil && stored.Status == core.StatusAssigned
	}, 2*time.Second, 10*time.Millisecond, "queued review should be auto-assigned")
}

func TestDispatcher_SettledReviewIsSafeToRequeue(t *testing.T) {
	ctx := context.Background()
	engine, store := newJobsFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	d := NewDispatcher(engine, 1, logger)

	review, err := engine.Create(ctx, "subj-1", core.PriorityNormal)
	require.NoError(t, err)
	_, err = engine.Assign(ctx, review.ID, "mod-1")
	require.NoError(t, err)

	// Dispatching an already-assigned review is a no-op, not an error.
	require.NoError(t, d.Dispatch(ctx, review.ID))
	d.Stop() // Waits for the worker to drain the queue.

	stored, err := store.Get(ctx, review.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AssignedModerator)
	assert.Equal(t, "mod-1", *stored.AssignedModerator)
}

func TestSweeper_RunOnceDispatchesAssignable(t *testing.T) {
	ctx := context.Background()
	engine, store := newJobsFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	d := NewDispatcher(engine, 1, logger)
	defer d.Stop()
	s := NewSweeper(engine, store, d, "@every 1h", logger)

	review, err := engine.Create(ctx, "subj-1", core.PriorityHigh)
	require.NoError(t, err)

	result, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Processed, "nothing has timed out")

	// The pending review was handed to the dispatcher anyway.
	assert.Eventually(t, func() bool {
		stored, err := store.Get(ctx, review.ID)
		return err == nil && stored.Status == core.StatusAssigned
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweeper_RunOnceSkipsOverlappingPass(t *testing.T) {
	ctx := context.Background()
	engine, store := newJobsFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	d := NewDispatcher(engine, 1, logger)
	defer d.Stop()
	s := NewSweeper(engine, store, d, "@every 1h", logger)

	review, err := engine.Create(ctx, "subj-1", core.PriorityHigh)
	require.NoError(t, err)

	// While a pass holds the guard, a concurrent trigger is a quiet no-op
	// regardless of whether it came from cron or the HTTP endpoint. The
	// skipped pass must not touch the dispatcher either.
	s.running.Lock()
	result, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	s.running.Unlock()

	stored, err := store.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, stored.Status)

	// With the guard free the same call does a real pass.
	_, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		stored, err := store.Get(ctx, review.ID)
		return err == nil && stored.Status == core.StatusAssigned
	}, 2*time.Second, 10*time.Millisecond)
}
