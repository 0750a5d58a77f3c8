package resolver

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"wopihost/internal/model"
	"wopihost/internal/storage"
)

// Scan resolves ids by listing "<id>.*" under the storage root.
//
// When several objects match, the first in key order wins unless strict is set,
// in which case the lookup fails with ErrAmbiguous. Concurrent lookups for the
// same id share a single listing.
type Scan struct {
	store  storage.Storage
	strict bool
	group  singleflight.Group
}

// NewScan returns a Scan resolver over store.
func NewScan(store storage.Storage, strict bool) *Scan {
	return &Scan{store: store, strict: strict}
}

var _ Resolver = (*Scan)(nil)

func (s *Scan) Resolve(ctx context.Context, documentID string) (model.StorageObject, error) {
	if !ValidID(documentID) {
		return model.StorageObject{}, ErrNotFound
	}

	v, err, _ := s.group.Do(documentID, func() (any, error) {
		// Shared by every waiter, so one caller's cancellation must not fail the others.
		return s.store.List(context.WithoutCancel(ctx), documentID+".")
	})
	if err != nil {
		return model.StorageObject{}, fmt.Errorf("list %s.*: %w", documentID, err)
	}

	matches := v.([]storage.ObjectInfo)
	switch {
	case len(matches) == 0:
		return model.StorageObject{}, ErrNotFound
	case s.strict && len(matches) > 1:
		return model.StorageObject{}, fmt.Errorf("%w: %s has %d matches", ErrAmbiguous, documentID, len(matches))
	}
	return objectFor(documentID, matches[0]), nil
}
