// Package core defines the essential domain types and interfaces that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import "time"

// ReviewStatus is the lifecycle state of a moderation review.
type ReviewStatus string

const (
	StatusPending    ReviewStatus = "PENDING"
	StatusAssigned   ReviewStatus = "ASSIGNED"
	StatusInProgress ReviewStatus = "IN_PROGRESS"
	StatusCompleted  ReviewStatus = "COMPLETED"
	StatusEscalated  ReviewStatus = "ESCALATED"
	StatusExpired    ReviewStatus = "EXPIRED"
	StatusCancelled  ReviewStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s ReviewStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusExpired, StatusCancelled:
		return true
	case StatusPending, StatusAssigned, StatusInProgress, StatusEscalated:
		return false
	}
	return false
}

// Active reports whether a review in this status counts against its
// moderator's workload.
func (s ReviewStatus) Active() bool {
	return s == StatusAssigned || s == StatusInProgress
}

// Assignable reports whether a review in this status may be handed to a
// moderator. ESCALATED re-enters assignment.
func (s ReviewStatus) Assignable() bool {
	return s == StatusPending || s == StatusEscalated
}

// Priority determines a review's timeout window and its behavior when that
// window lapses.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is a recognized priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// TimeoutDuration returns how long an assignee has before the review is
// swept. Unrecognized priorities fall back to the normal window.
func (p Priority) TimeoutDuration() time.Duration {
	switch p {
	case PriorityCritical:
		return 2 * time.Hour
	case PriorityHigh:
		return 4 * time.Hour
	case PriorityNormal:
		return 8 * time.Hour
	case PriorityLow:
		return 24 * time.Hour
	}
	return 8 * time.Hour
}

// Urgent reports whether a timed-out review of this priority is rerouted to
// another moderator instead of being allowed to expire.
func (p Priority) Urgent() bool {
	return p == PriorityCritical || p == PriorityHigh
}

// PriorAnalysis is the opaque automated-analysis snapshot a review carries,
// supplied by the trust-score collaborator at creation time.
type PriorAnalysis struct {
	TrustScore float64 `json:"trustScore" db:"prior_trust_score"`
	Confidence float64 `json:"confidence" db:"prior_confidence"`
}

// Review is a single unit of human moderation work tied to a media subject.
// It is created PENDING by an external trigger and only ever mutated by the
// lifecycle engine; terminal reviews are never deleted.
type Review struct {
	ID                string       `json:"reviewId" db:"id"`
	SubjectID         string       `json:"subjectId" db:"subject_id"`
	Priority          Priority     `json:"priority" db:"priority"`
	Status            ReviewStatus `json:"status" db:"status"`
	AssignedModerator *string      `json:"assignedModerator,omitempty" db:"assigned_moderator"`
	CreatedAt         time.Time    `json:"createdAt" db:"created_at"`
	AssignedAt        *time.Time   `json:"assignedAt,omitempty" db:"assigned_at"`
	TimeoutAt         *time.Time   `json:"timeoutAt,omitempty" db:"timeout_at"`

	PriorAnalysis PriorAnalysis `json:"priorAnalysis"`
}

// AssignedTo reports whether the review is currently held by moderatorID.
func (r *Review) AssignedTo(moderatorID string) bool {
	return r.AssignedModerator != nil && *r.AssignedModerator == moderatorID
}
