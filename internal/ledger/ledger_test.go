package ledger

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/mod-warden/internal/core"
	"github.com/sevigo/mod-warden/internal/storage"
)

func testLedger(store storage.AuditStore) *Ledger {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	tick := 0
	return New(store, "mod-warden-test", logger).WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
}

func TestLedger_AppendBuildsChain(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := testLedger(store)

	first, err := l.Append(ctx, "subj-1", core.EventReviewCreated, core.Payload{"priority": "high"})
	require.NoError(t, err)
	assert.Equal(t, core.GenesisHash, first.Integrity.PreviousHash)
	assert.Contains(t, first.Integrity.CurrentHash, "sha256:")

	second, err := l.Append(ctx, "subj-1", core.EventReviewAssigned, core.Payload{"moderatorId": "mod-1"})
	require.NoError(t, err)
	assert.Equal(t, first.Integrity.CurrentHash, second.Integrity.PreviousHash)

	verdict, err := l.VerifyChain(ctx, "subj-1")
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
	assert.Equal(t, 2, verdict.TotalRecords)
	assert.Empty(t, verdict.BrokenAt)
}

func TestLedger_ChainsArePerSubject(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := testLedger(store)

	_, err := l.Append(ctx, "subj-1", core.EventReviewCreated, nil)
	require.NoError(t, err)
	other, err := l.Append(ctx, "subj-2", core.EventReviewCreated, nil)
	require.NoError(t, err)

	// The second subject starts its own chain from the genesis sentinel.
	assert.Equal(t, core.GenesisHash, other.Integrity.PreviousHash)
}

func TestLedger_VerifyEmptyChain(t *testing.T) {
	l := testLedger(storage.NewMemoryStore())

	verdict, err := l.VerifyChain(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
	assert.Zero(t, verdict.TotalRecords)
}

func TestLedger_DetectsPayloadTampering(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := testLedger(store)

	_, err := l.Append(ctx, "subj-1", core.EventReviewCreated, core.Payload{"priority": "low"})
	require.NoError(t, err)
	tampered, err := l.Append(ctx, "subj-1", core.EventReviewAssigned, core.Payload{"moderatorId": "mod-1"})
	require.NoError(t, err)
	_, err = l.Append(ctx, "subj-1", core.EventReviewStarted, nil)
	require.NoError(t, err)

	store.TamperPayload("subj-1", 1, core.Payload{"moderatorId": "mod-666"})

	verdict, err := l.VerifyChain(ctx, "subj-1")
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
	assert.Equal(t, tampered.AuditID, verdict.BrokenAt)

	var integrityErr *core.ChainIntegrityError
	err = l.EnsureIntact(ctx, "subj-1")
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, "subj-1", integrityErr.SubjectID)
}

func TestLedger_DetectsDeletedRecord(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := testLedger(store)

	_, err := l.Append(ctx, "subj-1", core.EventReviewCreated, nil)
	require.NoError(t, err)
	_, err = l.Append(ctx, "subj-1", core.EventReviewAssigned, nil)
	require.NoError(t, err)
	third, err := l.Append(ctx, "subj-1", core.EventReviewStarted, nil)
	require.NoError(t, err)

	// Removing the middle record breaks the link into its successor.
	store.DropRecord("subj-1", 1)

	verdict, err := l.VerifyChain(ctx, "subj-1")
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
	assert.Equal(t, third.AuditID, verdict.BrokenAt)
}

func TestLedger_HashIgnoresPayloadKeyOrder(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	a := &core.AuditRecord{
		AuditID:   "audit-1",
		SubjectID: "subj-1",
		Timestamp: ts,
		EventType: core.EventReviewCompleted,
		Payload:   core.Payload{"decision": "confirm", "moderatorId": "mod-1"},
		Integrity: core.Integrity{PreviousHash: core.GenesisHash},
	}
	b := &core.AuditRecord{
		AuditID:   "audit-1",
		SubjectID: "subj-1",
		Timestamp: ts.In(time.FixedZone("CET", 3600)),
		EventType: core.EventReviewCompleted,
		Payload:   core.Payload{"moderatorId": "mod-1", "decision": "confirm"},
		Integrity: core.Integrity{PreviousHash: core.GenesisHash},
	}

	hashA, err := recordHash(a)
	require.NoError(t, err)
	hashB, err := recordHash(b)
	require.NoError(t, err)

	// Same instant and same payload must hash identically regardless of map
	// ordering or the timestamp's zone representation.
	assert.Equal(t, hashA, hashB)
}

func TestLedger_NilPayloadSurvivesStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := testLedger(store)

	_, err := l.Append(ctx, "subj-1", core.EventReviewCreated, nil)
	require.NoError(t, err)
	_, err = l.Append(ctx, "subj-1", core.EventReviewCancelled, nil)
	require.NoError(t, err)

	// Push every payload through the JSONB Valuer/Scanner pair, as the
	// Postgres store would. Verification must see the same shape it hashed.
	history, err := l.History(ctx, "subj-1")
	require.NoError(t, err)
	for i := range history {
		raw, err := history[i].Payload.Value()
		require.NoError(t, err)
		var scanned core.Payload
		require.NoError(t, scanned.Scan(raw))
		store.TamperPayload("subj-1", i, scanned)
	}

	verdict, err := l.VerifyChain(ctx, "subj-1")
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
	assert.Empty(t, verdict.BrokenAt)
}

func TestLedger_HistoryPreservesOrder(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := testLedger(store)

	events := []string{core.EventReviewCreated, core.EventReviewAssigned, core.EventReviewStarted}
	for _, ev := range events {
		_, err := l.Append(ctx, "subj-1", ev, nil)
		require.NoError(t, err)
	}

	history, err := l.History(ctx, "subj-1")
	require.NoError(t, err)
	require.Len(t, history, len(events))
	for i, ev := range events {
		assert.Equal(t, ev, history[i].EventType)
	}
}
