package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/mod-warden/internal/core"
)

type postgresReviewStore struct {
	db *sqlx.DB
}

// NewReviewStore creates a Postgres-backed ReviewStore.
func NewReviewStore(db *sqlx.DB) ReviewStore {
	return &postgresReviewStore{db: db}
}

const reviewColumns = `id, subject_id, priority, status, assigned_moderator, created_at, assigned_at, timeout_at, prior_trust_score, prior_confidence`

func (s *postgresReviewStore) Create(ctx context.Context, review *core.Review) error {
	query := `INSERT INTO reviews (` + reviewColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.db.ExecContext(ctx, query,
		review.ID, review.SubjectID, review.Priority, review.Status,
		review.AssignedModerator, review.CreatedAt, review.AssignedAt, review.TimeoutAt,
		review.PriorAnalysis.TrustScore, review.PriorAnalysis.Confidence,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review %s: %w", review.ID, err)
	}
	return nil
}

func (s *postgresReviewStore) Get(ctx context.Context, id string) (*core.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	return s.scanReview(s.db.QueryRowContext(ctx, query, id))
}

func (s *postgresReviewStore) Transition(ctx context.Context, review *core.Review, expected core.ReviewStatus) error {
	query := `
		UPDATE reviews
		SET status = $1, assigned_moderator = $2, assigned_at = $3, timeout_at = $4
		WHERE id = $5 AND status = $6`

	res, err := s.db.ExecContext(ctx, query,
		review.Status, review.AssignedModerator, review.AssignedAt, review.TimeoutAt,
		review.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to transition review %s: %w", review.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		// Either the review is gone or another writer moved it first.
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)`, review.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check review existence: %w", err)
		}
		if !exists {
			return core.ErrNotFound
		}
		return core.ErrConflict
	}
	return nil
}

func (s *postgresReviewStore) ListTimedOut(ctx context.Context, now time.Time) ([]core.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE status IN ($1, $2) AND timeout_at <= $3
		ORDER BY timeout_at ASC`

	rows, err := s.db.QueryContext(ctx, query, core.StatusAssigned, core.StatusInProgress, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list timed-out reviews: %w", err)
	}
	return s.collectReviews(rows)
}

func (s *postgresReviewStore) ListAssignable(ctx context.Context) ([]core.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE status IN ($1, $2)
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, core.StatusPending, core.StatusEscalated)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignable reviews: %w", err)
	}
	return s.collectReviews(rows)
}

func (s *postgresReviewStore) CountActive(ctx context.Context, moderatorID string) (int, error) {
	query := `SELECT COUNT(*) FROM reviews WHERE assigned_moderator = $1 AND status IN ($2, $3)`

	var count int
	err := s.db.QueryRowContext(ctx, query, moderatorID, core.StatusAssigned, core.StatusInProgress).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active reviews for moderator %s: %w", moderatorID, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *postgresReviewStore) scanReview(row rowScanner) (*core.Review, error) {
	var r core.Review
	err := row.Scan(
		&r.ID, &r.SubjectID, &r.Priority, &r.Status, &r.AssignedModerator,
		&r.CreatedAt, &r.AssignedAt, &r.TimeoutAt,
		&r.PriorAnalysis.TrustScore, &r.PriorAnalysis.Confidence,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *postgresReviewStore) collectReviews(rows *sql.Rows) ([]core.Review, error) {
	defer func() { _ = rows.Close() }()

	result := make([]core.Review, 0)
	for rows.Next() {
		r, err := s.scanReview(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
