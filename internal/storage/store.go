// Package storage defines the persistence interfaces for reviews, moderator
// profiles, decisions and audit records, together with their Postgres and
// in-memory implementations.
package storage

import (
	"context"
	"time"

	"github.com/sevigo/mod-warden/internal/core"
)

// ReviewStore persists reviews. All status mutations go through Transition,
// which enforces an expected-status precondition so concurrent writers fail
// with core.ErrConflict instead of losing updates.
type ReviewStore interface {
	Create(ctx context.Context, review *core.Review) error
	Get(ctx context.Context, id string) (*core.Review, error)

	// Transition persists the review's mutable fields if and only if the
	// stored status still equals expected. It returns core.ErrNotFound if the
	// review does not exist and core.ErrConflict if the status moved since
	// the caller read it.
	Transition(ctx context.Context, review *core.Review, expected core.ReviewStatus) error

	// ListTimedOut returns reviews in ASSIGNED or IN_PROGRESS whose timeout
	// deadline is at or before now, oldest deadline first.
	ListTimedOut(ctx context.Context, now time.Time) ([]core.Review, error)

	// ListAssignable returns reviews in PENDING or ESCALATED, oldest first.
	ListAssignable(ctx context.Context) ([]core.Review, error)

	// CountActive returns the number of reviews the moderator currently
	// holds, computed live from review rows rather than a stored counter.
	CountActive(ctx context.Context, moderatorID string) (int, error)
}

// ModeratorStore reads moderator profiles. Profiles are written by an
// external provisioning collaborator, never by this service.
type ModeratorStore interface {
	Get(ctx context.Context, id string) (*core.ModeratorProfile, error)
	ListActive(ctx context.Context) ([]core.ModeratorProfile, error)
}

// DecisionStore persists validated decisions, one per completed review.
type DecisionStore interface {
	Save(ctx context.Context, decision *core.Decision) error
	GetByReview(ctx context.Context, reviewID string) (*core.Decision, error)
}

// AuditStore persists hash-chained audit records. Append is the sole write
// path; records are never mutated or deleted.
type AuditStore interface {
	// TailHash returns the current hash of the newest record for the
	// subject, or core.GenesisHash when the chain is empty.
	TailHash(ctx context.Context, subjectID string) (string, error)

	// Append inserts the record conditionally on its previous hash still
	// being the chain tail. A race on the tail returns core.ErrConflict so
	// the caller can refetch and retry.
	Append(ctx context.Context, record *core.AuditRecord) error

	// ListBySubject returns the subject's records in creation order.
	ListBySubject(ctx context.Context, subjectID string) ([]core.AuditRecord, error)
}
