package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/moodpulse/internal/domain"
)

const snapshotRowID = 1

const (
	loadSnapshotSQL = `SELECT document FROM snapshots WHERE id = $1`

	saveSnapshotSQL = `
INSERT INTO snapshots (id, document, saved_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (id) DO UPDATE
SET document = EXCLUDED.document, saved_at = EXCLUDED.saved_at`
)

var _ domain.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore keeps the whole document in a single row that every save overwrites.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	var document []byte
	err := s.pool.QueryRow(ctx, loadSnapshotSQL, snapshotRowID).Scan(&document)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return document, nil
}

func (s *SnapshotStore) Save(ctx context.Context, document []byte) error {
	if _, err := s.pool.Exec(ctx, saveSnapshotSQL, snapshotRowID, string(document)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Ping backs the readiness probe.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
