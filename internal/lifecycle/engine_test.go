package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/mod-warden/internal/core"
	"github.com/sevigo/mod-warden/internal/ledger"
	"github.com/sevigo/mod-warden/internal/storage"
	"github.com/sevigo/mod-warden/internal/workload"
)

// fakeTrust is a thread-safe TrustClient stub.
type fakeTrust struct {
	mu      sync.Mutex
	prior   core.PriorAnalysis
	err     error
	recalcs []string
}

func (f *fakeTrust) GetPriorAnalysis(_ context.Context, _ string) (core.PriorAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prior, f.err
}

func (f *fakeTrust) TriggerRecalculation(_ context.Context, subjectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recalcs = append(f.recalcs, subjectID)
	return nil
}

// fakeNotifier records notifications; calls arrive from fire-and-forget
// goroutines, so access is mutex-guarded and tests never assert on delivery
// timing.
type fakeNotifier struct {
	mu       sync.Mutex
	events   []string
	timeouts []string
	alerts   []string
}

func (f *fakeNotifier) NotifyModerator(_ context.Context, moderatorID, event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, moderatorID+":"+event)
	return nil
}

func (f *fakeNotifier) NotifyTimeout(_ context.Context, reviewID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeouts = append(f.timeouts, reviewID)
	return nil
}

func (f *fakeNotifier) AlertCapacityExhausted(_ context.Context, reviewID string, _ core.Priority) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, reviewID)
	return nil
}

type engineFixture struct {
	engine   *Engine
	store    *storage.MemoryStore
	trust    *fakeTrust
	notifier *fakeNotifier
	ledger   *ledger.Ledger
	now      time.Time
	mu       sync.Mutex
}

func (f *engineFixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *engineFixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStore()

	f := &engineFixture{
		store:    store,
		trust:    &fakeTrust{prior: core.PriorAnalysis{TrustScore: 50, Confidence: 0.8}},
		notifier: &fakeNotifier{},
		now:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	f.ledger = ledger.New(store, "mod-warden-test", logger).WithClock(f.clock)
	registry := workload.NewRegistry(store.Moderators(), store, logger)
	f.engine = NewEngine(store, store, f.ledger, registry, f.trust, f.notifier, nil, logger).WithClock(f.clock)
	return f
}

func (f *engineFixture) seedModerators(ids ...string) {
	for _, id := range ids {
		f.store.PutModerator(core.ModeratorProfile{ID: id, Status: core.ModeratorActive, Role: core.RoleJunior})
	}
}

func (f *engineFixture) createAssigned(t *testing.T, moderatorID string, priority core.Priority) *core.Review {
	t.Helper()
	ctx := context.Background()
	review, err := f.engine.Create(ctx, "subj-1", priority)
	require.NoError(t, err)
	_, err = f.engine.Assign(ctx, review.ID, moderatorID)
	require.NoError(t, err)
	review, err = f.store.Get(ctx, review.ID)
	require.NoError(t, err)
	return review
}

func eventTypes(t *testing.T, f *engineFixture, subjectID string) []string {
	t.Helper()
	history, err := f.ledger.History(context.Background(), subjectID)
	require.NoError(t, err)
	types := make([]string, len(history))
	for i, r := range history {
		types[i] = r.EventType
	}
	return types
}

func TestEngine_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	review, err := f.engine.Create(ctx, "subj-1", core.PriorityHigh)
	require.NoError(t, err)

	assert.Equal(t, core.StatusPending, review.Status)
	assert.Equal(t, core.PriorityHigh, review.Priority)
	assert.Equal(t, 50.0, review.PriorAnalysis.TrustScore)
	assert.Nil(t, review.AssignedModerator)
	assert.Nil(t, review.TimeoutAt)

	assert.Equal(t, []string{core.EventReviewCreated}, eventTypes(t, f, "subj-1"))
}

func TestEngine_CreateRejectsUnknownPriority(t *testing.T) {
	f := newFixture(t)

	var validationErr *core.ValidationError
	_, err := f.engine.Create(context.Background(), "subj-1", "urgent")
	require.ErrorAs(t, err, &validationErr)

	assert.Empty(t, eventTypes(t, f, "subj-1"))
}

func TestEngine_CreateAbortsWhenTrustSnapshotFails(t *testing.T) {
	f := newFixture(t)
	f.trust.err = errors.New("trust service down")

	var depErr *core.DependencyError
	_, err := f.engine.Create(context.Background(), "subj-1", core.PriorityNormal)
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "trust-score", depErr.Collaborator)

	// No review and no audit record may exist without the snapshot.
	assert.Empty(t, eventTypes(t, f, "subj-1"))
}

func TestEngine_AssignStampsDeadline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")

	review, err := f.engine.Create(ctx, "subj-1", core.PriorityCritical)
	require.NoError(t, err)

	result, err := f.engine.Assign(ctx, review.ID, "mod-1")
	require.NoError(t, err)

	assert.Equal(t, "mod-1", result.ModeratorID)
	assert.Equal(t, f.now, result.AssignedAt)
	assert.Equal(t, f.now.Add(2*time.Hour), result.TimeoutAt, "critical reviews get a two hour window")

	stored, err := f.store.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusAssigned, stored.Status)
	require.NotNil(t, stored.AssignedModerator)
	assert.Equal(t, "mod-1", *stored.AssignedModerator)

	assert.Equal(t, []string{core.EventReviewCreated, core.EventReviewAssigned}, eventTypes(t, f, "subj-1"))
}

func TestEngine_TimeoutWindowsByPriority(t *testing.T) {
	tests := []struct {
		priority core.Priority
		window   time.Duration
	}{
		{core.PriorityCritical, 2 * time.Hour},
		{core.PriorityHigh, 4 * time.Hour},
		{core.PriorityNormal, 8 * time.Hour},
		{core.PriorityLow, 24 * time.Hour},
	}

	for _, tc := range tests {
		t.Run(string(tc.priority), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.seedModerators("mod-1")

			review, err := f.engine.Create(ctx, "subj-1", tc.priority)
			require.NoError(t, err)
			result, err := f.engine.Assign(ctx, review.ID, "mod-1")
			require.NoError(t, err)

			assert.Equal(t, f.now.Add(tc.window), result.TimeoutAt)
		})
	}
}

func TestEngine_AssignRejectsNonAssignableStates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1", "mod-2")
	review := f.createAssigned(t, "mod-1", core.PriorityNormal)

	var stateErr *core.InvalidStateError
	_, err := f.engine.Assign(ctx, review.ID, "mod-2")
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, core.StatusAssigned, stateErr.Status)
}

func TestEngine_AssignRefusesFullModerator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")

	// Fill the junior's three slots.
	for i := 0; i < 3; i++ {
		review, err := f.engine.Create(ctx, "subj-1", core.PriorityNormal)
		require.NoError(t, err)
		_, err = f.engine.Assign(ctx, review.ID, "mod-1")
		require.NoError(t, err)
	}

	review, err := f.engine.Create(ctx, "subj-1", core.PriorityNormal)
	require.NoError(t, err)
	_, err = f.engine.Assign(ctx, review.ID, "mod-1")
	require.ErrorIs(t, err, core.ErrModeratorUnavailable)

	stored, err := f.store.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, stored.Status, "refusal leaves the review untouched")
}

func TestEngine_AutoAssignPicksLeastLoaded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1", "mod-2")
	f.createAssigned(t, "mod-1", core.PriorityNormal)

	review, err := f.engine.Create(ctx, "subj-2", core.PriorityNormal)
	require.NoError(t, err)

	result, err := f.engine.AutoAssign(ctx, review.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "mod-2", result.ModeratorID)
}

func TestEngine_AutoAssignIsNoopWhenAlreadyAssigned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")
	review := f.createAssigned(t, "mod-1", core.PriorityNormal)

	result, err := f.engine.AutoAssign(ctx, review.ID)
	require.NoError(t, err)
	assert.Nil(t, result, "dispatcher retries on settled reviews must be safe")
}

func TestEngine_StartRequiresAssignee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")
	review := f.createAssigned(t, "mod-1", core.PriorityNormal)

	err := f.engine.Start(ctx, review.ID, "mod-2")
	require.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, f.engine.Start(ctx, review.ID, "mod-1"))

	stored, err := f.store.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusInProgress, stored.Status)
}

func TestEngine_StartRejectsPendingReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	review, err := f.engine.Create(ctx, "subj-1", core.PriorityNormal)
	require.NoError(t, err)

	var stateErr *core.InvalidStateError
	err = f.engine.Start(ctx, review.ID, "mod-1")
	require.ErrorAs(t, err, &stateErr)
}

func TestEngine_CompleteConfirmDecision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")
	review := f.createAssigned(t, "mod-1", core.PriorityNormal)
	require.NoError(t, f.engine.Start(ctx, review.ID, "mod-1"))

	adjustment := 55.0
	result, err := f.engine.Complete(ctx, review.ID, "mod-1", &core.Decision{
		DecisionType:         core.DecisionConfirm,
		ConfidenceLevel:      core.ConfidenceHigh,
		Justification:        "matches the automated finding",
		TrustScoreAdjustment: &adjustment,
	})
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.True(t, result.Validation.Valid)
	assert.True(t, result.Consistency.Consistent)
	assert.Equal(t, 5.0, result.Consistency.ScoreDifference)

	saved, err := f.store.GetByReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "mod-1", saved.ModeratorID)

	assert.Equal(t, []string{
		core.EventReviewCreated,
		core.EventReviewAssigned,
		core.EventReviewStarted,
		core.EventReviewCompleted,
	}, eventTypes(t, f, "subj-1"))
}

func TestEngine_CompleteWithInconsistentDecisionStillCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")
	review := f.createAssigned(t, "mod-1", core.PriorityNormal)

	adjustment := 90.0
	result, err := f.engine.Complete(ctx, review.ID, "mod-1", &core.Decision{
		DecisionType:         core.DecisionConfirm,
		ConfidenceLevel:      core.ConfidenceMedium,
		Justification:        "content is worse than the model thought",
		TrustScoreAdjustment: &adjustment,
	})
	require.NoError(t, err)

	// Consistency findings annotate the result but never block.
	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.False(t, result.Consistency.Consistent)
	assert.Contains(t, result.Consistency.Warnings, "Large trust score difference")
}

func TestEngine_CompleteRejectsInvalidDecision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")
	review := f.createAssigned(t, "mod-1", core.PriorityNormal)

	var validationErr *core.ValidationError
	_, err := f.engine.Complete(ctx, review.ID, "mod-1", &core.Decision{
		DecisionType:    "approve",
		ConfidenceLevel: core.ConfidenceHigh,
		Justification:   "short",
	})
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Errors, 2)

	stored, err := f.store.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusAssigned, stored.Status, "rejected completion leaves the review assigned")

	_, err = f.store.GetByReview(ctx, review.ID)
	require.ErrorIs(t, err, core.ErrNotFound, "no decision row for a rejected completion")
}

func TestEngine_CompleteForbiddenForNonAssignee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")
	review := f.createAssigned(t, "mod-1", core.PriorityNormal)

	_, err := f.engine.Complete(ctx, review.ID, "mod-2", &core.Decision{
		DecisionType:    core.DecisionConfirm,
		ConfidenceLevel: core.ConfidenceHigh,
		Justification:   "not my review though",
	})
	require.ErrorIs(t, err, core.ErrForbidden)
}

func TestEngine_CompleteEscalateReentersAssignment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1", "mod-2")
	review := f.createAssigned(t, "mod-1", core.PriorityNormal)

	result, err := f.engine.Complete(ctx, review.ID, "mod-1", &core.Decision{
		DecisionType:    core.DecisionEscalate,
		ConfidenceLevel: core.ConfidenceLow,
		Justification:   "needs a senior call on this one",
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusEscalated, result.Status)

	stored, err := f.store.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedModerator, "escalation releases the assignment")
	assert.Nil(t, stored.TimeoutAt)

	// An escalated review can be assigned again.
	assignResult, err := f.engine.Assign(ctx, review.ID, "mod-2")
	require.NoError(t, err)
	assert.Equal(t, "mod-2", assignResult.ModeratorID)
}

func TestEngine_CancelFromAnyNonTerminalState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")

	review, err := f.engine.Create(ctx, "subj-1", core.PriorityLow)
	require.NoError(t, err)
	require.NoError(t, f.engine.Cancel(ctx, review.ID, "subject deleted"))

	stored, err := f.store.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCancelled, stored.Status)

	var stateErr *core.InvalidStateError
	err = f.engine.Cancel(ctx, review.ID, "twice")
	require.ErrorAs(t, err, &stateErr, "terminal reviews stay terminal")
}

func TestEngine_SweepReassignsUrgentReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1", "mod-2")
	review := f.createAssigned(t, "mod-1", core.PriorityHigh)

	f.advance(4*time.Hour + time.Minute)

	result, err := f.engine.CheckTimeouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Processed: 1, Reassigned: 1}, result)

	stored, err := f.store.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusAssigned, stored.Status)
	require.NotNil(t, stored.AssignedModerator)
	assert.Equal(t, "mod-2", *stored.AssignedModerator, "previous holder is excluded")
	require.NotNil(t, stored.TimeoutAt)
	assert.Equal(t, f.clock().Add(4*time.Hour), *stored.TimeoutAt, "reassignment restarts the window")

	types := eventTypes(t, f, "subj-1")
	assert.Equal(t, core.EventTimeoutReassigned, types[len(types)-1])
}

func TestEngine_SweepExpiresRoutineReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")
	review := f.createAssigned(t, "mod-1", core.PriorityNormal)

	f.advance(8*time.Hour + time.Minute)

	result, err := f.engine.CheckTimeouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Processed: 1, Expired: 1}, result)

	stored, err := f.store.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusExpired, stored.Status)

	// The moderator's slot frees up immediately.
	load, err := f.store.CountActive(ctx, "mod-1")
	require.NoError(t, err)
	assert.Zero(t, load)

	types := eventTypes(t, f, "subj-1")
	assert.Equal(t, core.EventReviewExpired, types[len(types)-1])
}

func TestEngine_SweepRequeuesUrgentWhenNobodyAvailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")
	review := f.createAssigned(t, "mod-1", core.PriorityCritical)

	f.advance(2*time.Hour + time.Minute)

	result, err := f.engine.CheckTimeouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Processed: 1}, result)

	stored, err := f.store.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, stored.Status, "urgent reviews never expire silently")
	assert.Nil(t, stored.AssignedModerator)

	types := eventTypes(t, f, "subj-1")
	assert.Equal(t, core.EventReviewRequeued, types[len(types)-1])
}

func TestEngine_SweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")
	f.createAssigned(t, "mod-1", core.PriorityNormal)

	f.advance(9 * time.Hour)

	first, err := f.engine.CheckTimeouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	second, err := f.engine.CheckTimeouts(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Processed, "an expired review is not swept again")
}

func TestEngine_GetReviewStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedModerators("mod-1")
	review := f.createAssigned(t, "mod-1", core.PriorityNormal)

	status, err := f.engine.GetReviewStatus(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusAssigned, status.Status)
	assert.Len(t, status.History, 2)

	_, err = f.engine.GetReviewStatus(ctx, "missing")
	require.ErrorIs(t, err, core.ErrNotFound)
}
