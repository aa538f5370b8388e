// Package lifecycle owns the review state machine: admission-controlled
// assignment, timeout-driven escalation and reassignment, and validated
// completion. All mutations to a single review are linearized through
// expected-status transitions; a concurrent writer surfaces as
// core.ErrConflict and the caller retries against fresh state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sevigo/mod-warden/internal/core"
	"github.com/sevigo/mod-warden/internal/ledger"
	"github.com/sevigo/mod-warden/internal/storage"
	"github.com/sevigo/mod-warden/internal/validator"
	"github.com/sevigo/mod-warden/internal/workload"
)

const collaboratorTimeout = 10 * time.Second

// AssignResult reports a successful assignment.
type AssignResult struct {
	ReviewID    string    `json:"reviewId"`
	ModeratorID string    `json:"moderatorId"`
	AssignedAt  time.Time `json:"assignedAt"`
	TimeoutAt   time.Time `json:"timeoutAt"`
}

// CompleteResult reports a successful completion, including the advisory
// consistency verdict.
type CompleteResult struct {
	Status      core.ReviewStatus           `json:"status"`
	Validation  validator.StructureResult   `json:"validationResult"`
	Consistency validator.ConsistencyResult `json:"consistencyResult"`
}

// SweepResult counts what one timeout sweep did.
type SweepResult struct {
	Processed  int `json:"processed"`
	Reassigned int `json:"reassigned"`
	Expired    int `json:"expired"`
}

// StatusResult pairs a review's current status with its audit history.
type StatusResult struct {
	Status  core.ReviewStatus  `json:"status"`
	History []core.AuditRecord `json:"history"`
}

// Engine is the review lifecycle state machine.
type Engine struct {
	reviews   storage.ReviewStore
	decisions storage.DecisionStore
	ledger    *ledger.Ledger
	registry  *workload.Registry
	trust     core.TrustClient
	notifier  core.Notifier
	policy    *EscalationPolicy
	logger    *slog.Logger
	clock     func() time.Time
}

// NewEngine creates the lifecycle engine.
func NewEngine(
	reviews storage.ReviewStore,
	decisions storage.DecisionStore,
	auditLedger *ledger.Ledger,
	registry *workload.Registry,
	trust core.TrustClient,
	notifier core.Notifier,
	policy *EscalationPolicy,
	logger *slog.Logger,
) *Engine {
	if policy == nil {
		policy = DefaultEscalationPolicy()
	}
	return &Engine{
		reviews:   reviews,
		decisions: decisions,
		ledger:    auditLedger,
		registry:  registry,
		trust:     trust,
		notifier:  notifier,
		policy:    policy,
		logger:    logger,
		clock:     time.Now,
	}
}

// WithClock overrides the clock for testing.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// Create registers a new review for the subject in PENDING state, snapshots
// the subject's prior automated analysis, and records the creation in the
// audit chain.
func (e *Engine) Create(ctx context.Context, subjectID string, priority core.Priority) (*core.Review, error) {
	if !priority.Valid() {
		return nil, &core.ValidationError{Errors: []string{fmt.Sprintf("Invalid priority: %s", priority)}}
	}

	prior, err := e.trust.GetPriorAnalysis(ctx, subjectID)
	if err != nil {
		var depErr *core.DependencyError
		if errors.As(err, &depErr) {
			return nil, err
		}
		return nil, &core.DependencyError{Collaborator: "trust-score", Err: err}
	}

	review := &core.Review{
		ID:            uuid.NewString(),
		SubjectID:     subjectID,
		Priority:      priority,
		Status:        core.StatusPending,
		CreatedAt:     e.clock(),
		PriorAnalysis: prior,
	}

	// The audit record lands before the review row: a chain entry for an
	// absent review is detectable noise, an unlogged review is not.
	_, err = e.ledger.Append(ctx, subjectID, core.EventReviewCreated, core.Payload{
		"reviewId":   review.ID,
		"priority":   string(priority),
		"trustScore": prior.TrustScore,
	})
	if err != nil {
		return nil, fmt.Errorf("audit append failed, review not created: %w", err)
	}

	if err := e.reviews.Create(ctx, review); err != nil {
		e.logger.Error("review insert failed after audit append; chain carries an orphan creation record",
			"review_id", review.ID, "subject_id", subjectID, "error", err)
		return nil, err
	}
	return review, nil
}

// Assign hands a PENDING or ESCALATED review to an available moderator,
// stamping the priority-derived timeout deadline.
func (e *Engine) Assign(ctx context.Context, reviewID, moderatorID string) (*AssignResult, error) {
	review, err := e.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !review.Status.Assignable() {
		return nil, &core.InvalidStateError{ReviewID: reviewID, Status: review.Status, Op: "assign"}
	}

	available, err := e.registry.IsAvailable(ctx, moderatorID, review.Priority)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, fmt.Errorf("%w: %s", core.ErrModeratorUnavailable, moderatorID)
	}

	return e.assignTo(ctx, review, moderatorID, core.EventReviewAssigned, nil)
}

// AutoAssign picks the least-loaded available moderator for the review. It is
// a no-op when the review already left the assignable states, so dispatcher
// retries are safe.
func (e *Engine) AutoAssign(ctx context.Context, reviewID string) (*AssignResult, error) {
	review, err := e.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !review.Status.Assignable() {
		return nil, nil
	}

	target, err := e.pickTarget(ctx, review.Priority, "")
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, fmt.Errorf("%w: no active moderator with spare capacity", core.ErrModeratorUnavailable)
	}
	return e.assignTo(ctx, review, target, core.EventReviewAssigned, nil)
}

// Start moves an ASSIGNED review to IN_PROGRESS. Only the assignee may start
// their own review.
func (e *Engine) Start(ctx context.Context, reviewID, moderatorID string) error {
	review, err := e.reviews.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.Status != core.StatusAssigned {
		return &core.InvalidStateError{ReviewID: reviewID, Status: review.Status, Op: "start"}
	}
	if !review.AssignedTo(moderatorID) {
		return core.ErrForbidden
	}

	updated := *review
	updated.Status = core.StatusInProgress
	if err := e.reviews.Transition(ctx, &updated, review.Status); err != nil {
		return err
	}

	_, err = e.ledger.Append(ctx, review.SubjectID, core.EventReviewStarted, core.Payload{
		"reviewId":    review.ID,
		"moderatorId": moderatorID,
	})
	if err != nil {
		e.revert(ctx, review, updated.Status)
		return fmt.Errorf("audit append failed, start rolled back: %w", err)
	}
	return nil
}

// Complete validates the moderator's decision, persists it, and moves the
// review to COMPLETED, or to ESCALATED for an escalate decision. The
// consistency verdict is advisory: it annotates the result and the audit
// trail but never blocks completion.
func (e *Engine) Complete(ctx context.Context, reviewID, moderatorID string, decision *core.Decision) (*CompleteResult, error) {
	review, err := e.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !review.Status.Active() {
		return nil, &core.InvalidStateError{ReviewID: reviewID, Status: review.Status, Op: "complete"}
	}
	if !review.AssignedTo(moderatorID) {
		return nil, core.ErrForbidden
	}

	structure := validator.ValidateStructure(decision)
	if !structure.Valid {
		return nil, &core.ValidationError{Errors: structure.Errors, Warnings: structure.Warnings}
	}
	consistency := validator.CheckConsistency(review, decision)

	decision.ReviewID = review.ID
	decision.ModeratorID = moderatorID
	decision.CreatedAt = e.clock()

	// The decision row lands first: if a later step aborts, an orphan
	// decision for a still-active review is overwritten on retry.
	if err := e.decisions.Save(ctx, decision); err != nil {
		return nil, err
	}

	updated := *review
	if decision.DecisionType == core.DecisionEscalate {
		updated.Status = core.StatusEscalated
		updated.AssignedModerator = nil
		updated.AssignedAt = nil
		updated.TimeoutAt = nil
	} else {
		updated.Status = core.StatusCompleted
	}
	if err := e.reviews.Transition(ctx, &updated, review.Status); err != nil {
		return nil, err
	}

	eventType := core.EventReviewCompleted
	if updated.Status == core.StatusEscalated {
		eventType = core.EventReviewEscalated
	}
	_, err = e.ledger.Append(ctx, review.SubjectID, eventType, core.Payload{
		"reviewId":        review.ID,
		"moderatorId":     moderatorID,
		"decisionType":    string(decision.DecisionType),
		"confidenceLevel": string(decision.ConfidenceLevel),
		"consistent":      consistency.Consistent,
		"scoreDifference": consistency.ScoreDifference,
	})
	if err != nil {
		e.revert(ctx, review, updated.Status)
		return nil, fmt.Errorf("audit append failed, completion rolled back: %w", err)
	}

	e.fireAndForget("trust-score", func(ctx context.Context) error {
		return e.trust.TriggerRecalculation(ctx, review.SubjectID)
	})

	return &CompleteResult{Status: updated.Status, Validation: structure, Consistency: consistency}, nil
}

// Cancel terminally cancels a review in any non-terminal state.
func (e *Engine) Cancel(ctx context.Context, reviewID, reason string) error {
	review, err := e.reviews.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.Status.Terminal() {
		return &core.InvalidStateError{ReviewID: reviewID, Status: review.Status, Op: "cancel"}
	}

	updated := *review
	updated.Status = core.StatusCancelled
	if err := e.reviews.Transition(ctx, &updated, review.Status); err != nil {
		return err
	}

	_, err = e.ledger.Append(ctx, review.SubjectID, core.EventReviewCancelled, core.Payload{
		"reviewId": review.ID,
		"reason":   reason,
	})
	if err != nil {
		e.revert(ctx, review, updated.Status)
		return fmt.Errorf("audit append failed, cancellation rolled back: %w", err)
	}
	return nil
}

// CheckTimeouts sweeps reviews whose deadline has lapsed. Urgent reviews are
// rerouted to another moderator, or reverted to PENDING with a capacity alert
// when nobody can take them; routine reviews expire and need explicit
// re-triage. The sweep is idempotent and proceeds past per-item failures.
func (e *Engine) CheckTimeouts(ctx context.Context) (SweepResult, error) {
	now := e.clock()
	timedOut, err := e.reviews.ListTimedOut(ctx, now)
	if err != nil {
		return SweepResult{}, err
	}

	var result SweepResult
	for i := range timedOut {
		review := timedOut[i]
		result.Processed++

		reassigned, err := e.handleTimeout(ctx, &review)
		if err != nil {
			e.logger.Error("timeout handling failed, continuing sweep",
				"review_id", review.ID, "priority", review.Priority, "error", err)
			continue
		}
		if reassigned {
			result.Reassigned++
		} else if !review.Priority.Urgent() {
			result.Expired++
		}
	}
	return result, nil
}

// GetReviewStatus returns the review's current status together with its
// subject's audit history.
func (e *Engine) GetReviewStatus(ctx context.Context, reviewID string) (*StatusResult, error) {
	review, err := e.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	history, err := e.ledger.History(ctx, review.SubjectID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{Status: review.Status, History: history}, nil
}

// handleTimeout processes one timed-out review. It reports whether the
// review was reassigned.
func (e *Engine) handleTimeout(ctx context.Context, review *core.Review) (bool, error) {
	previous := ""
	if review.AssignedModerator != nil {
		previous = *review.AssignedModerator
	}

	if !review.Priority.Urgent() {
		return false, e.expire(ctx, review, previous)
	}

	target, err := e.pickTarget(ctx, review.Priority, previous)
	if err != nil {
		return false, err
	}
	if target == "" {
		return false, e.requeue(ctx, review, previous)
	}

	_, err = e.assignTo(ctx, review, target, core.EventTimeoutReassigned, core.Payload{
		"previousModerator": previous,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) expire(ctx context.Context, review *core.Review, previous string) error {
	updated := *review
	updated.Status = core.StatusExpired
	if err := e.reviews.Transition(ctx, &updated, review.Status); err != nil {
		return err
	}

	_, err := e.ledger.Append(ctx, review.SubjectID, core.EventReviewExpired, core.Payload{
		"reviewId":    review.ID,
		"moderatorId": previous,
		"priority":    string(review.Priority),
	})
	if err != nil {
		e.revert(ctx, review, updated.Status)
		return fmt.Errorf("audit append failed, expiry rolled back: %w", err)
	}

	e.fireAndForget("notifier", func(ctx context.Context) error {
		return e.notifier.NotifyTimeout(ctx, review.ID)
	})
	return nil
}

func (e *Engine) requeue(ctx context.Context, review *core.Review, previous string) error {
	updated := *review
	updated.Status = core.StatusPending
	updated.AssignedModerator = nil
	updated.AssignedAt = nil
	updated.TimeoutAt = nil
	if err := e.reviews.Transition(ctx, &updated, review.Status); err != nil {
		return err
	}

	_, err := e.ledger.Append(ctx, review.SubjectID, core.EventReviewRequeued, core.Payload{
		"reviewId":          review.ID,
		"previousModerator": previous,
		"priority":          string(review.Priority),
	})
	if err != nil {
		e.revert(ctx, review, updated.Status)
		return fmt.Errorf("audit append failed, requeue rolled back: %w", err)
	}

	if e.requeueCount(ctx, review) > e.policy.AlertAfterRequeues {
		e.fireAndForget("notifier", func(ctx context.Context) error {
			return e.notifier.AlertCapacityExhausted(ctx, review.ID, review.Priority)
		})
	}
	return nil
}

// assignTo performs the shared assignment transition for direct assignment
// and timeout reassignment. The caller has already checked admission.
func (e *Engine) assignTo(ctx context.Context, review *core.Review, moderatorID, eventType string, extra core.Payload) (*AssignResult, error) {
	now := e.clock()
	assignedAt := now
	timeoutAt := now.Add(review.Priority.TimeoutDuration())

	updated := *review
	updated.Status = core.StatusAssigned
	updated.AssignedModerator = &moderatorID
	updated.AssignedAt = &assignedAt
	updated.TimeoutAt = &timeoutAt
	if err := e.reviews.Transition(ctx, &updated, review.Status); err != nil {
		return nil, err
	}

	payload := core.Payload{
		"reviewId":    review.ID,
		"moderatorId": moderatorID,
		"assignedAt":  assignedAt.UTC().Format(time.RFC3339Nano),
		"timeoutAt":   timeoutAt.UTC().Format(time.RFC3339Nano),
		"priority":    string(review.Priority),
	}
	for k, v := range extra {
		payload[k] = v
	}
	if _, err := e.ledger.Append(ctx, review.SubjectID, eventType, payload); err != nil {
		e.revert(ctx, review, updated.Status)
		return nil, fmt.Errorf("audit append failed, assignment rolled back: %w", err)
	}

	e.fireAndForget("notifier", func(ctx context.Context) error {
		return e.notifier.NotifyModerator(ctx, moderatorID, eventType)
	})

	*review = updated
	return &AssignResult{
		ReviewID:    review.ID,
		ModeratorID: moderatorID,
		AssignedAt:  assignedAt,
		TimeoutAt:   timeoutAt,
	}, nil
}

// pickTarget returns the least-loaded available moderator, or "" when none
// has spare capacity.
func (e *Engine) pickTarget(ctx context.Context, priority core.Priority, exclude string) (string, error) {
	candidates, err := e.registry.AvailableCandidates(ctx, priority, exclude)
	if err != nil {
		return "", err
	}
	target := ""
	best := -1
	for _, c := range candidates {
		if best < 0 || c.Load < best {
			best = c.Load
			target = c.Profile.ID
		}
	}
	return target, nil
}

// requeueCount derives how often this review has already fallen back to
// PENDING from the audit chain, the same live-query stance the workload
// registry takes.
func (e *Engine) requeueCount(ctx context.Context, review *core.Review) int {
	records, err := e.ledger.History(ctx, review.SubjectID)
	if err != nil {
		e.logger.Warn("failed to derive requeue count, alerting anyway",
			"review_id", review.ID, "error", err)
		return e.policy.AlertAfterRequeues + 1
	}
	count := 0
	for _, r := range records {
		if r.EventType != core.EventReviewRequeued {
			continue
		}
		if id, ok := r.Payload["reviewId"].(string); ok && id == review.ID {
			count++
		}
	}
	return count
}

// revert rolls a review back to its pre-transition snapshot after an audit
// append failure. A failed rollback leaves the louder inconsistency, so it is
// logged at error level.
func (e *Engine) revert(ctx context.Context, snapshot *core.Review, from core.ReviewStatus) {
	if err := e.reviews.Transition(ctx, snapshot, from); err != nil {
		e.logger.Error("failed to roll back review after audit append failure",
			"review_id", snapshot.ID, "error", err)
	}
}

// fireAndForget runs a collaborator call off the request path. Failures are
// wrapped as DependencyError and logged; they never fail the transition that
// triggered them.
func (e *Engine) fireAndForget(name string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			depErr := &core.DependencyError{Collaborator: name, Err: err}
			e.logger.Warn("collaborator call failed", "error", depErr)
		}
	}()
}
