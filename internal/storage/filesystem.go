package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const tempPattern = ".wopi-put-*"

// fileStorage keeps documents as plain files in a single directory.
// Hidden entries (leading dot) are never listed; Put stages its temp files under such names.
type fileStorage struct {
	root string
}

// NewFilesystem returns a Storage rooted at dir. The directory must already exist.
func NewFilesystem(dir string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat storage root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root is not a directory: %s", abs)
	}
	return &fileStorage{root: abs}, nil
}

func (f *fileStorage) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(f.root, key), nil
}

func (f *fileStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// os.ReadDir returns entries sorted by filename.
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("read storage root: %w", err)
	}

	out := make([]ObjectInfo, 0)
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		info, err := os.Stat(filepath.Join(f.root, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		out = append(out, fileInfo(name, info))
	}
	return out, nil
}

func (f *fileStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	p, err := f.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotExist, key)
		}
		return ObjectInfo{}, err
	}
	if !info.Mode().IsRegular() {
		return ObjectInfo{}, fmt.Errorf("%w: %s is not a regular file", ErrNotExist, key)
	}
	return fileInfo(key, info), nil
}

func (f *fileStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := f.Stat(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	p, _ := f.path(key)
	file, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotExist, key)
		}
		return nil, ObjectInfo{}, err
	}
	return file, info, nil
}

// Put writes r to a hidden temp file next to the target and renames it into place,
// so readers see either the old or the new content and a failed write leaves the
// original untouched. The target's permission bits are kept. Put never creates a
// document: a missing target fails with ErrNotExist before anything is written.
func (f *fileStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	target, err := f.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	st, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotExist, key)
		}
		return ObjectInfo{}, err
	}
	if !st.Mode().IsRegular() {
		return ObjectInfo{}, fmt.Errorf("%w: %s is not a regular file", ErrNotExist, key)
	}
	perm := st.Mode().Perm()

	tmp, err := os.CreateTemp(f.root, tempPattern)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("write temp file: %w", err)
	}
	if opt.Size >= 0 && n != opt.Size {
		return ObjectInfo{}, fmt.Errorf("short write: wrote %d of %d bytes", n, opt.Size)
	}
	if err := tmp.Chmod(perm); err != nil {
		return ObjectInfo{}, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return ObjectInfo{}, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return ObjectInfo{}, fmt.Errorf("replace %s: %w", key, err)
	}
	committed = true

	info, err := os.Stat(target)
	if err != nil {
		return ObjectInfo{}, err
	}
	out := fileInfo(key, info)
	out.ContentType = opt.ContentType
	out.Metadata = opt.Metadata
	return out, nil
}

func (f *fileStorage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(f.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root is not a directory: %s", f.root)
	}
	return nil
}

func fileInfo(key string, info fs.FileInfo) ObjectInfo {
	return ObjectInfo{
		Key:          key,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}
}
