package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/sevigo/mod-warden/internal/core"
)

const hashPrefix = "sha256:"

// hashEnvelope is the canonical form of an audit record with the current
// hash excluded. The timestamp is rendered as UTC RFC 3339 text so the hash
// is stable across storage round-trips and session timezones.
type hashEnvelope struct {
	AuditID      string       `json:"auditId"`
	SubjectID    string       `json:"subjectId"`
	Timestamp    string       `json:"timestamp"`
	EventType    string       `json:"eventType"`
	EventSource  string       `json:"eventSource"`
	Payload      core.Payload `json:"payload"`
	PreviousHash string       `json:"previousHash"`
}

// recordHash computes the SHA-256 digest of the record's RFC 8785 canonical
// JSON form, excluding the current hash itself.
func recordHash(record *core.AuditRecord) (string, error) {
	envelope := hashEnvelope{
		AuditID:      record.AuditID,
		SubjectID:    record.SubjectID,
		Timestamp:    record.Timestamp.UTC().Format(time.RFC3339Nano),
		EventType:    record.EventType,
		EventSource:  record.EventSource,
		Payload:      record.Payload,
		PreviousHash: record.Integrity.PreviousHash,
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("failed to marshal audit record %s: %w", record.AuditID, err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize audit record %s: %w", record.AuditID, err)
	}

	sum := sha256.Sum256(canonical)
	return hashPrefix + hex.EncodeToString(sum[:]), nil
}
