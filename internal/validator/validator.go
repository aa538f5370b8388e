// Package validator checks a moderator's completion decision before the
// lifecycle engine accepts it. Structural validation blocks completion;
// consistency checking against the prior automated analysis is advisory and
// only annotates the result and the audit trail.
package validator

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/sevigo/mod-warden/internal/core"
)

// Structural limits.
const (
	minJustificationLen = 10
	maxTagCount         = 10
	maxScoreAdjustment  = 100.0
)

// Consistency thresholds on the absolute difference between the prior trust
// score and the decision's adjustment.
const (
	largeDifference    = 25.0
	materialDifference = 10.0
)

// StructureResult is the outcome of structural validation. The decision is
// valid iff Errors is empty; warnings never affect validity.
type StructureResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ConsistencyResult is the outcome of checking a decision against the
// review's prior automated analysis.
type ConsistencyResult struct {
	Consistent      bool     `json:"consistent"`
	Warnings        []string `json:"warnings"`
	ScoreDifference float64  `json:"scoreDifference"`
}

// ValidateStructure checks the decision's required fields, enumerations and
// value ranges.
func ValidateStructure(decision *core.Decision) StructureResult {
	result := StructureResult{Errors: []string{}, Warnings: []string{}}

	if decision.DecisionType == "" {
		result.Errors = append(result.Errors, "Missing required field: decisionType")
	} else if !decision.DecisionType.Valid() {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid decision type: %s", decision.DecisionType))
	}

	if decision.ConfidenceLevel == "" {
		result.Errors = append(result.Errors, "Missing required field: confidenceLevel")
	} else if !decision.ConfidenceLevel.Valid() {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid confidence level: %s", decision.ConfidenceLevel))
	}

	if decision.Justification == "" {
		result.Errors = append(result.Errors, "Missing required field: justification")
	} else if n := utf8.RuneCountInString(decision.Justification); n < minJustificationLen {
		// Counted in characters, not bytes, so multi-byte text is not
		// shortchanged.
		result.Errors = append(result.Errors, fmt.Sprintf("Justification too short: %d characters, need at least %d", n, minJustificationLen))
	}

	if decision.TrustScoreAdjustment != nil {
		adj := *decision.TrustScoreAdjustment
		if adj < 0 || adj > maxScoreAdjustment {
			result.Errors = append(result.Errors, fmt.Sprintf("Trust score adjustment out of range [0,100]: %g", adj))
		}
	}

	if len(decision.Tags) > maxTagCount {
		// Too many tags slows downstream indexing but is not a correctness
		// problem.
		result.Warnings = append(result.Warnings, fmt.Sprintf("More than %d tags: %d", maxTagCount, len(decision.Tags)))
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// CheckConsistency compares the decision's score adjustment against the
// review's prior automated analysis and flags combinations that suggest a
// likely error or an override worth extra scrutiny.
func CheckConsistency(review *core.Review, decision *core.Decision) ConsistencyResult {
	result := ConsistencyResult{Consistent: true, Warnings: []string{}}
	if decision.TrustScoreAdjustment == nil {
		return result
	}

	diff := math.Abs(review.PriorAnalysis.TrustScore - *decision.TrustScoreAdjustment)
	result.ScoreDifference = diff

	switch {
	case diff > largeDifference:
		result.Consistent = false
		result.Warnings = append(result.Warnings, "Large trust score difference")
	case decision.DecisionType == core.DecisionOverride && diff < materialDifference:
		// An override is expected to materially change the assessment.
		result.Consistent = false
		result.Warnings = append(result.Warnings, "Override decision with minimal score change")
	case decision.DecisionType == core.DecisionConfirm && diff > materialDifference:
		// A confirmation should not carry a large re-scoring.
		result.Consistent = false
		result.Warnings = append(result.Warnings, "Confirmed decision with significant score adjustment")
	}
	return result
}
