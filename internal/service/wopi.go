package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wopihost/internal/identity"
	"wopihost/internal/lock"
	"wopihost/internal/model"
	"wopihost/internal/resolver"
	"wopihost/internal/storage"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrEmptyContent = errors.New("no file content provided")
	ErrStorageList  = errors.New("storage lookup failed")
	ErrStorageRead  = errors.New("storage read failed")
	ErrStorageWrite = errors.New("storage write failed")
	ErrLock         = errors.New("document lock failed")
	ErrIdentity     = errors.New("identity lookup failed")
)

// WopiService defines the WOPI file operations. Every call resolves the document id first,
// performs one storage access and never retries.
type WopiService interface {
	// CheckFileInfo returns the document's name, size and the caller's permissions.
	CheckFileInfo(ctx context.Context, documentID string) (*model.FileInfo, error)

	// GetFile returns the whole document content.
	GetFile(ctx context.Context, documentID string) ([]byte, error)

	// PutFile replaces the content of an existing document. It never creates one.
	PutFile(ctx context.Context, documentID string, payload []byte) error
}

type wopiService struct {
	resolver resolver.Resolver
	store    storage.Storage
	locker   lock.Locker
	identity identity.Provider
	tracer   trace.Tracer
}

// NewWopiService constructs a new WopiService.
func NewWopiService(res resolver.Resolver, store storage.Storage, locker lock.Locker, ident identity.Provider) WopiService {
	return &wopiService{
		resolver: res,
		store:    store,
		locker:   locker,
		identity: ident,
		tracer:   otel.Tracer("wopihost/internal/service"),
	}
}

func (s *wopiService) start(ctx context.Context, op, documentID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("wopi.document_id", documentID)))
}

func finish(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrEmptyContent) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *wopiService) resolve(ctx context.Context, documentID string) (model.StorageObject, error) {
	obj, err := s.resolver.Resolve(ctx, documentID)
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			return model.StorageObject{}, ErrNotFound
		}
		return model.StorageObject{}, fmt.Errorf("%w: %w", ErrStorageList, err)
	}
	return obj, nil
}

func (s *wopiService) CheckFileInfo(ctx context.Context, documentID string) (info *model.FileInfo, err error) {
	ctx, span := s.start(ctx, "CheckFileInfo", documentID)
	defer func() { finish(span, err) }()

	obj, err := s.resolve(ctx, documentID)
	if err != nil {
		return nil, err
	}

	st, err := s.store.Stat(ctx, obj.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrStorageRead, obj.Key, err)
	}

	who, err := s.identity.Identify(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentity, err)
	}

	info = &model.FileInfo{
		BaseFileName: filepath.Base(obj.Key),
		Size:         st.Size,
		UserId:       who.UserID,
		UserCanWrite: who.CanWrite,

		NumericUserID: who.NumericID,
	}
	if !st.LastModified.IsZero() {
		info.LastModifiedTime = st.LastModified.UTC().Format(time.RFC3339)
	}
	return info, nil
}

func (s *wopiService) GetFile(ctx context.Context, documentID string) (data []byte, err error) {
	ctx, span := s.start(ctx, "GetFile", documentID)
	defer func() { finish(span, err) }()

	obj, err := s.resolve(ctx, documentID)
	if err != nil {
		return nil, err
	}

	rc, _, err := s.store.Get(ctx, obj.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorageRead, obj.Key, err)
	}
	defer rc.Close()

	data, err = io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorageRead, obj.Key, err)
	}
	span.SetAttributes(attribute.Int("wopi.size", len(data)))
	return data, nil
}

func (s *wopiService) PutFile(ctx context.Context, documentID string, payload []byte) (err error) {
	ctx, span := s.start(ctx, "PutFile", documentID)
	defer func() { finish(span, err) }()

	obj, err := s.resolve(ctx, documentID)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return ErrEmptyContent
	}

	unlock, err := s.locker.Lock(ctx, obj.Key)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLock, obj.Key, err)
	}
	defer unlock()

	_, err = s.store.Put(ctx, obj.Key, bytes.NewReader(payload), storage.PutObjectOptions{
		Size:        int64(len(payload)),
		ContentType: contentType(obj.Key),
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			// Removed after it was resolved; the write was refused.
			return ErrNotFound
		}
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, obj.Key, err)
	}
	span.SetAttributes(attribute.Int("wopi.size", len(payload)))
	return nil
}

func contentType(key string) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
