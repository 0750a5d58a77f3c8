package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"wopihost/internal/config"
)

// Package storage contains the flat document store abstraction and its backends.
// Objects are addressed by key, the object's name relative to the storage root
// (for example "abc123.docx"). There is no nesting below the root.

// ErrNotExist is returned (wrapped) when a key has no object behind it.
var ErrNotExist = errors.New("object does not exist")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known, or -1 if unknown.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the document store used by the resolver and the WOPI operations.
// Implementations must be safe for concurrent use.
type Storage interface {
	// List returns the objects directly under the root whose key starts with prefix,
	// sorted by key. An empty prefix lists every object.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Stat returns an object's metadata without reading its content.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Put replaces the existing object under key with the content of r. It never
	// creates an object: a missing key fails with ErrNotExist.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// New builds the backend selected by cfg.Backend.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "", "filesystem":
		return NewFilesystem(cfg.Root)
	case "minio":
		return NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Backend)
	}
}
