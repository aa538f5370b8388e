// Package ledger implements the append-only, hash-chained audit record store.
// Every record carries the digest of its own canonical form and the digest of
// its predecessor, so payload tampering and record deletion, reordering or
// insertion are both detectable after the fact.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/sevigo/mod-warden/internal/core"
	"github.com/sevigo/mod-warden/internal/storage"
)

// Ledger appends and verifies hash-chained audit records. Appends for the
// same subject are serialized through the store's conditional write; a lost
// race surfaces as core.ErrConflict and is retried against the new tail.
type Ledger struct {
	store  storage.AuditStore
	source string
	logger *slog.Logger
	clock  func() time.Time
}

// New creates a Ledger writing records attributed to the given event source.
func New(store storage.AuditStore, source string, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		source: source,
		logger: logger,
		clock:  time.Now,
	}
}

// WithClock overrides the clock for testing.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// Append fetches the subject's tail hash, builds the next record, hashes its
// canonical form and stores it. The caller must treat an error here as a
// failure of the whole triggering transition: a state change without its
// audit record is never reported as success.
func (l *Ledger) Append(ctx context.Context, subjectID, eventType string, payload core.Payload) (*core.AuditRecord, error) {
	// A nil payload is stored as an empty JSONB object and scans back as an
	// empty map; hash the same shape so verification survives the round-trip.
	if payload == nil {
		payload = core.Payload{}
	}

	var record *core.AuditRecord

	op := func() error {
		tail, err := l.store.TailHash(ctx, subjectID)
		if err != nil {
			return backoff.Permanent(err)
		}

		// Timestamps are truncated to microseconds before hashing; Postgres
		// stores no finer, and the digest must survive the round-trip.
		r := &core.AuditRecord{
			AuditID:     uuid.NewString(),
			SubjectID:   subjectID,
			Timestamp:   l.clock().UTC().Truncate(time.Microsecond),
			EventType:   eventType,
			EventSource: l.source,
			Payload:     payload,
			Integrity:   core.Integrity{PreviousHash: tail},
		}

		hash, err := recordHash(r)
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Integrity.CurrentHash = hash

		if err := l.store.Append(ctx, r); err != nil {
			if errors.Is(err, core.ErrConflict) {
				l.logger.Debug("audit append lost tail race, retrying",
					"subject_id", subjectID, "event_type", eventType)
				return err
			}
			return backoff.Permanent(err)
		}
		record = r
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 20 * time.Millisecond
	bo.MaxElapsedTime = 3 * time.Second

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return record, nil
}

// VerifyChain replays the subject's records in creation order, recomputing
// each record's digest and checking link continuity. The verdict names the
// first offending record when either check fails.
func (l *Ledger) VerifyChain(ctx context.Context, subjectID string) (core.ChainVerification, error) {
	records, err := l.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return core.ChainVerification{}, err
	}

	result := core.ChainVerification{Valid: true, TotalRecords: len(records)}
	prev := core.GenesisHash
	for i := range records {
		record := &records[i]

		recomputed, err := recordHash(record)
		if err != nil {
			return core.ChainVerification{}, err
		}
		if recomputed != record.Integrity.CurrentHash {
			result.Valid = false
			result.BrokenAt = record.AuditID
			return result, nil
		}
		if record.Integrity.PreviousHash != prev {
			result.Valid = false
			result.BrokenAt = record.AuditID
			return result, nil
		}
		prev = record.Integrity.CurrentHash
	}
	return result, nil
}

// EnsureIntact verifies the subject's chain and converts a negative verdict
// into a ChainIntegrityError.
func (l *Ledger) EnsureIntact(ctx context.Context, subjectID string) error {
	verdict, err := l.VerifyChain(ctx, subjectID)
	if err != nil {
		return err
	}
	if !verdict.Valid {
		return &core.ChainIntegrityError{SubjectID: subjectID, BrokenAt: verdict.BrokenAt}
	}
	return nil
}

// History returns the subject's audit records in creation order.
func (l *Ledger) History(ctx context.Context, subjectID string) ([]core.AuditRecord, error) {
	return l.store.ListBySubject(ctx, subjectID)
}
