// Package resolver maps WOPI document ids to the storage object holding the document.
//
// A document id names a file by its stem: id "abc123" resolves to "abc123.docx",
// whatever the extension is. Two strategies are provided. Scan lists the storage
// root on every call; Index looks the id up in the Postgres document index that
// Reindex maintains.
package resolver

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"wopihost/internal/model"
	"wopihost/internal/storage"
)

var (
	// ErrNotFound means no storage object matches the document id.
	ErrNotFound = errors.New("no storage object matches document id")
	// ErrAmbiguous means strict resolution found more than one matching object.
	ErrAmbiguous = errors.New("document id matches more than one storage object")
)

// Resolver locates the canonical storage object for a document id.
// Implementations return ErrNotFound when nothing matches; any other error
// means the lookup itself failed.
type Resolver interface {
	Resolve(ctx context.Context, documentID string) (model.StorageObject, error)
}

// ValidID reports whether id can be used as a filename stem under the storage root.
// Ids that could escape the root, hide a file, or act as a wildcard are rejected.
func ValidID(id string) bool {
	if id == "" || strings.HasPrefix(id, ".") || strings.Contains(id, "..") {
		return false
	}
	if strings.ContainsAny(id, `/\*?[]`) {
		return false
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func objectFor(id string, info storage.ObjectInfo) model.StorageObject {
	return model.StorageObject{
		Key:          info.Key,
		BaseName:     id,
		Extension:    strings.TrimPrefix(info.Key, id),
		Size:         info.Size,
		LastModified: info.LastModified,
	}
}
