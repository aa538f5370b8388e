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

type postgresDecisionStore struct {
	db *sqlx.DB
}

// NewDecisionStore creates a Postgres-backed DecisionStore.
func NewDecisionStore(db *sqlx.DB) DecisionStore {
	return &postgresDecisionStore{db: db}
}

func (s *postgresDecisionStore) Save(ctx context.Context, decision *core.Decision) error {
	query := `
		INSERT INTO decisions
			(review_id, moderator_id, decision_type, confidence_level, justification,
			 trust_score_adjustment, tags, additional_evidence, threat_level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (review_id) DO UPDATE SET
			moderator_id = EXCLUDED.moderator_id,
			decision_type = EXCLUDED.decision_type,
			confidence_level = EXCLUDED.confidence_level,
			justification = EXCLUDED.justification,
			trust_score_adjustment = EXCLUDED.trust_score_adjustment,
			tags = EXCLUDED.tags,
			additional_evidence = EXCLUDED.additional_evidence,
			threat_level = EXCLUDED.threat_level,
			created_at = EXCLUDED.created_at`

	_, err := s.db.ExecContext(ctx, query,
		decision.ReviewID, decision.ModeratorID, decision.DecisionType, decision.ConfidenceLevel,
		decision.Justification, decision.TrustScoreAdjustment,
		pq.Array(decision.Tags), pq.Array(decision.AdditionalEvidence),
		nullableString(decision.ThreatLevel), decision.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save decision for review %s: %w", decision.ReviewID, err)
	}
	return nil
}

func (s *postgresDecisionStore) GetByReview(ctx context.Context, reviewID string) (*core.Decision, error) {
	query := `
		SELECT review_id, moderator_id, decision_type, confidence_level, justification,
		       trust_score_adjustment, tags, additional_evidence, threat_level, created_at
		FROM decisions WHERE review_id = $1`

	var d core.Decision
	var threatLevel sql.NullString
	err := s.db.QueryRowContext(ctx, query, reviewID).Scan(
		&d.ReviewID, &d.ModeratorID, &d.DecisionType, &d.ConfidenceLevel, &d.Justification,
		&d.TrustScoreAdjustment, pq.Array(&d.Tags), pq.Array(&d.AdditionalEvidence),
		&threatLevel, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load decision for review %s: %w", reviewID, err)
	}
	d.ThreatLevel = threatLevel.String
	return &d, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
