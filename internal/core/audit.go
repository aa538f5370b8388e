package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GenesisHash is the previous-hash sentinel carried by the first audit record
// of every subject chain.
const GenesisHash = "genesis"

// Audit event types emitted by the lifecycle engine.
const (
	EventReviewCreated     = "review_created"
	EventReviewAssigned    = "review_assigned"
	EventReviewStarted     = "review_started"
	EventReviewCompleted   = "review_completed"
	EventReviewEscalated   = "review_escalated"
	EventReviewExpired     = "review_expired"
	EventReviewCancelled   = "review_cancelled"
	EventTimeoutReassigned = "timeout_and_reassign"
	EventReviewRequeued    = "review_requeued"
)

// Payload carries event-specific audit data. It is stored as JSONB and
// canonicalized deterministically when hashed.
type Payload map[string]any

// Value implements driver.Valuer for JSONB storage.
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (p *Payload) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = nil
		return nil
	}
	return fmt.Errorf("cannot scan %T into audit payload", src)
}

// Integrity links an audit record into its subject's hash chain.
type Integrity struct {
	PreviousHash string `json:"previousHash" db:"prev_hash"`
	CurrentHash  string `json:"currentHash" db:"curr_hash"`
}

// AuditRecord is one immutable entry in the hash chain for a subject. The
// current hash covers the canonical form of the record with the current hash
// itself excluded; the previous hash is the immediately preceding record's
// current hash, or GenesisHash for the first record.
type AuditRecord struct {
	AuditID     string    `json:"auditId" db:"audit_id"`
	SubjectID   string    `json:"subjectId" db:"subject_id"`
	Timestamp   time.Time `json:"timestamp" db:"ts"`
	EventType   string    `json:"eventType" db:"event_type"`
	EventSource string    `json:"eventSource" db:"event_source"`
	Payload     Payload   `json:"payload" db:"payload"`
	Integrity   Integrity `json:"integrity"`
}

// ChainVerification is the verdict of replaying a subject's audit chain.
// BrokenAt names the first offending record when Valid is false.
type ChainVerification struct {
	Valid        bool   `json:"valid"`
	TotalRecords int    `json:"totalRecords"`
	BrokenAt     string `json:"brokenAt,omitempty"`
}
