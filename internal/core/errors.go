package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across the workflow engine.
var (
	// ErrNotFound signals that a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden signals an actor mismatch, such as a moderator completing
	// a review assigned to someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict signals an optimistic-concurrency mismatch: the entity
	// changed since it was read. Conflicts are retryable, not fatal.
	ErrConflict = errors.New("conflict: state changed since read")

	// ErrModeratorUnavailable signals that the capacity or status gate
	// rejected an assignment.
	ErrModeratorUnavailable = errors.New("moderator unavailable")
)

// InvalidStateError is returned when an operation is not valid for the
// review's current status.
type InvalidStateError struct {
	ReviewID string
	Status   ReviewStatus
	Op       string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s review %s in state %s", e.Op, e.ReviewID, e.Status)
}

// ValidationError carries the full list of structural decision errors so the
// caller can correct and retry.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return "decision validation failed: " + strings.Join(e.Errors, "; ")
}

// ChainIntegrityError reports an audit chain verification failure, naming the
// first broken record.
type ChainIntegrityError struct {
	SubjectID string
	BrokenAt  string
}

func (e *ChainIntegrityError) Error() string {
	return fmt.Sprintf("audit chain for subject %s broken at record %s", e.SubjectID, e.BrokenAt)
}

// DependencyError wraps a collaborator failure. It is logged and recovered
// locally; it never fails the transition that triggered the collaborator call.
type DependencyError struct {
	Collaborator string
	Err          error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("collaborator %s failed: %v", e.Collaborator, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }
