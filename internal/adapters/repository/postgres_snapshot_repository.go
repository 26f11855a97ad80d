package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var _ domain.SnapshotRepository = (*PostgresSnapshotRepository)(nil)

// PostgresSnapshotRepository stores each user's document as a single jsonb
// row in habit_documents.
type PostgresSnapshotRepository struct {
	db *sqlx.DB
}

func NewPostgresSnapshotRepository(db *sqlx.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

type documentRow struct {
	Data      []byte    `db:"data"`
	Version   int       `db:"version"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *PostgresSnapshotRepository) Load(ctx context.Context, userID string) (*domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		SELECT data, version, updated_at
		FROM habit_documents
		WHERE user_id = $1
	`

	var row documentRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("repository: load document failed: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(row.Data, &snap); err != nil {
		return nil, fmt.Errorf("repository: failed to unmarshal document: %w", err)
	}
	snap.Version = row.Version
	snap.UpdatedAt = row.UpdatedAt

	return &snap, nil
}

func (r *PostgresSnapshotRepository) Save(ctx context.Context, userID string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("repository: failed to marshal document: %w", err)
	}

	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		INSERT INTO habit_documents (user_id, data, version, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			data = EXCLUDED.data,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, userID, data, snap.Version, updatedAt); err != nil {
		return fmt.Errorf("repository: save document failed: %w", err)
	}
	return nil
}

func (r *PostgresSnapshotRepository) Delete(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM habit_documents WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("repository: delete document failed: %w", err)
	}
	return nil
}
