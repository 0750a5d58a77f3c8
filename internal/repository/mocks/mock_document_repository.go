package mocks

import (
	"context"
	"time"

	"wopihost/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockDocumentIndex struct {
	mock.Mock
}

func (m *MockDocumentIndex) FindByID(ctx context.Context, id string) (*model.IndexEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IndexEntry), args.Error(1)
}

func (m *MockDocumentIndex) Upsert(ctx context.Context, entry *model.IndexEntry) (*model.IndexEntry, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IndexEntry), args.Error(1)
}

func (m *MockDocumentIndex) Prune(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
