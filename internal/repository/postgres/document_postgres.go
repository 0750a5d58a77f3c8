package postgres

import (
	"context"
	"database/sql"
	"time"

	"wopihost/internal/model"
	"wopihost/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentIndex.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentIndex = (*DocumentPostgres)(nil)

// FindByID fetches a single index entry by document id.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.IndexEntry, error) {
	const q = `
		SELECT id, object_key, updated_at
		FROM documents
		WHERE id = $1
	`
	var e model.IndexEntry
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.ObjectKey, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// Upsert writes the entry, moving an existing id to the new object key.
func (r *DocumentPostgres) Upsert(ctx context.Context, entry *model.IndexEntry) (*model.IndexEntry, error) {
	const q = `
		INSERT INTO documents (id, object_key, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET object_key = EXCLUDED.object_key, updated_at = EXCLUDED.updated_at
		RETURNING id, object_key, updated_at
	`
	var out model.IndexEntry
	if err := r.db.QueryRowContext(ctx, q, entry.ID, entry.ObjectKey, entry.UpdatedAt).
		Scan(&out.ID, &out.ObjectKey, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// Prune removes entries whose updated_at is older than before.
func (r *DocumentPostgres) Prune(ctx context.Context, before time.Time) (int64, error) {
	const q = `DELETE FROM documents WHERE updated_at < $1`
	res, err := r.db.ExecContext(ctx, q, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
