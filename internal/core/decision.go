package core

import "time"

// DecisionType is a moderator's disposition of a review.
type DecisionType string

const (
	DecisionConfirm      DecisionType = "confirm"
	DecisionOverride     DecisionType = "override"
	DecisionEscalate     DecisionType = "escalate"
	DecisionInconclusive DecisionType = "inconclusive"
)

// Valid reports whether t is a recognized decision type.
func (t DecisionType) Valid() bool {
	switch t {
	case DecisionConfirm, DecisionOverride, DecisionEscalate, DecisionInconclusive:
		return true
	}
	return false
}

// ConfidenceLevel expresses how certain the moderator is of the decision.
type ConfidenceLevel string

const (
	ConfidenceVeryLow  ConfidenceLevel = "very_low"
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceVeryHigh ConfidenceLevel = "very_high"
)

// Valid reports whether c is a recognized confidence level.
func (c ConfidenceLevel) Valid() bool {
	switch c {
	case ConfidenceVeryLow, ConfidenceLow, ConfidenceMedium, ConfidenceHigh, ConfidenceVeryHigh:
		return true
	}
	return false
}

// Decision is a moderator's completed disposition of a review. It is created
// once per completed review, persisted only after passing validation, and
// immutable thereafter.
type Decision struct {
	ReviewID             string          `json:"reviewId" db:"review_id"`
	ModeratorID          string          `json:"moderatorId" db:"moderator_id"`
	DecisionType         DecisionType    `json:"decisionType" db:"decision_type"`
	ConfidenceLevel      ConfidenceLevel `json:"confidenceLevel" db:"confidence_level"`
	Justification        string          `json:"justification" db:"justification"`
	TrustScoreAdjustment *float64        `json:"trustScoreAdjustment,omitempty" db:"trust_score_adjustment"`
	Tags                 []string        `json:"tags,omitempty"`
	AdditionalEvidence   []string        `json:"additionalEvidence,omitempty"`
	ThreatLevel          string          `json:"threatLevel,omitempty" db:"threat_level"`
	CreatedAt            time.Time       `json:"createdAt" db:"created_at"`
}
