package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sevigo/mod-warden/internal/core"
)

// pgUniqueViolation is the Postgres error code raised when the per-subject
// chain-tail index rejects a racing append.
const pgUniqueViolation = "23505"

type postgresAuditStore struct {
	db *sqlx.DB
}

// NewAuditStore creates a Postgres-backed AuditStore.
func NewAuditStore(db *sqlx.DB) AuditStore {
	return &postgresAuditStore{db: db}
}

func (s *postgresAuditStore) TailHash(ctx context.Context, subjectID string) (string, error) {
	query := `SELECT curr_hash FROM audit_records WHERE subject_id = $1 ORDER BY seq DESC LIMIT 1`

	var hash string
	err := s.db.QueryRowContext(ctx, query, subjectID).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.GenesisHash, nil
		}
		return "", fmt.Errorf("failed to read chain tail for subject %s: %w", subjectID, err)
	}
	return hash, nil
}

func (s *postgresAuditStore) Append(ctx context.Context, record *core.AuditRecord) error {
	// The unique index on (subject_id, prev_hash) is the per-subject
	// serialization point: two appends racing on the same tail cannot both
	// commit.
	query := `
		INSERT INTO audit_records (audit_id, subject_id, ts, event_type, event_source, payload, prev_hash, curr_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		record.AuditID, record.SubjectID, record.Timestamp, record.EventType, record.EventSource,
		record.Payload, record.Integrity.PreviousHash, record.Integrity.CurrentHash,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return core.ErrConflict
		}
		return fmt.Errorf("failed to append audit record for subject %s: %w", record.SubjectID, err)
	}
	return nil
}

func (s *postgresAuditStore) ListBySubject(ctx context.Context, subjectID string) ([]core.AuditRecord, error) {
	query := `
		SELECT audit_id, subject_id, ts, event_type, event_source, payload, prev_hash, curr_hash
		FROM audit_records
		WHERE subject_id = $1
		ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records for subject %s: %w", subjectID, err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]core.AuditRecord, 0)
	for rows.Next() {
		var r core.AuditRecord
		if err := rows.Scan(
			&r.AuditID, &r.SubjectID, &r.Timestamp, &r.EventType, &r.EventSource,
			&r.Payload, &r.Integrity.PreviousHash, &r.Integrity.CurrentHash,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
