package core

import "context"

//go:generate mockgen -source=collaborators.go -destination=../../mocks/collaborators.go -package=mocks

// TrustClient talks to the external trust-score collaborator. Prior analysis
// is consumed as an opaque snapshot; recalculation is fire-and-forget.
type TrustClient interface {
	// GetPriorAnalysis fetches the automated-analysis snapshot for a subject.
	GetPriorAnalysis(ctx context.Context, subjectID string) (PriorAnalysis, error)

	// TriggerRecalculation asks the collaborator to recompute the subject's
	// composite score after a completed review. Callers invoke it
	// asynchronously; its failure never rolls back a completion.
	TriggerRecalculation(ctx context.Context, subjectID string) error
}

// Notifier delivers moderator and timeout notifications. Delivery failures
// are logged, never propagated as transition failures.
type Notifier interface {
	NotifyModerator(ctx context.Context, moderatorID, event string) error
	NotifyTimeout(ctx context.Context, reviewID string) error

	// AlertCapacityExhausted raises an operator alert when an urgent review
	// timed out and no reassignment target could be found.
	AlertCapacityExhausted(ctx context.Context, reviewID string, priority Priority) error
}

// AssignmentDispatcher queues reviews for background auto-assignment. It
// decouples the HTTP layer and the timeout sweep from the worker pool that
// performs admission-controlled assignment.
type AssignmentDispatcher interface {
	// Dispatch queues a review for assignment. It returns an error if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, reviewID string) error
}
