package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wopihost/internal/model"
	"wopihost/internal/repository"
	"wopihost/internal/storage"
)

// Index resolves ids through the document index, then confirms the object still exists.
// An index row pointing at a vanished object resolves to ErrNotFound.
type Index struct {
	repo  repository.DocumentIndex
	store storage.Storage
}

// NewIndex returns an Index resolver.
func NewIndex(repo repository.DocumentIndex, store storage.Storage) *Index {
	return &Index{repo: repo, store: store}
}

var _ Resolver = (*Index)(nil)

func (x *Index) Resolve(ctx context.Context, documentID string) (model.StorageObject, error) {
	if !ValidID(documentID) {
		return model.StorageObject{}, ErrNotFound
	}

	entry, err := x.repo.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.StorageObject{}, ErrNotFound
		}
		return model.StorageObject{}, fmt.Errorf("index lookup: %w", err)
	}

	info, err := x.store.Stat(ctx, entry.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return model.StorageObject{}, ErrNotFound
		}
		return model.StorageObject{}, fmt.Errorf("stat %s: %w", entry.ObjectKey, err)
	}
	return objectFor(documentID, info), nil
}
