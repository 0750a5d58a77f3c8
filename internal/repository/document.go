package repository

import (
	"context"
	"time"

	"wopihost/internal/model"
)

// DocumentIndex is the persistence contract for the id -> object key index.
// No business logic here; strictly persistence operations.
type DocumentIndex interface {
	// FindByID returns the entry for a document id, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.IndexEntry, error)

	// Upsert inserts or refreshes an entry, setting its UpdatedAt.
	Upsert(ctx context.Context, entry *model.IndexEntry) (*model.IndexEntry, error)

	// Prune deletes entries not refreshed since the given time and reports how many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
}
