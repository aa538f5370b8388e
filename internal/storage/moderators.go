package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/mod-warden/internal/core"
)

type postgresModeratorStore struct {
	db *sqlx.DB
}

// NewModeratorStore creates a Postgres-backed ModeratorStore.
func NewModeratorStore(db *sqlx.DB) ModeratorStore {
	return &postgresModeratorStore{db: db}
}

func (s *postgresModeratorStore) Get(ctx context.Context, id string) (*core.ModeratorProfile, error) {
	query := `SELECT id, status, role FROM moderators WHERE id = $1`

	var m core.ModeratorProfile
	err := s.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Status, &m.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load moderator %s: %w", id, err)
	}
	return &m, nil
}

func (s *postgresModeratorStore) ListActive(ctx context.Context) ([]core.ModeratorProfile, error) {
	query := `SELECT id, status, role FROM moderators WHERE status = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, core.ModeratorActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active moderators: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]core.ModeratorProfile, 0)
	for rows.Next() {
		var m core.ModeratorProfile
		if err := rows.Scan(&m.ID, &m.Status, &m.Role); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
