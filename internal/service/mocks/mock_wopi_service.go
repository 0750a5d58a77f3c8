package mocks

import (
	"context"

	"wopihost/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockWopiService struct {
	mock.Mock
}

func (m *MockWopiService) CheckFileInfo(ctx context.Context, documentID string) (*model.FileInfo, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileInfo), args.Error(1)
}

func (m *MockWopiService) GetFile(ctx context.Context, documentID string) ([]byte, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWopiService) PutFile(ctx context.Context, documentID string, payload []byte) error {
	args := m.Called(ctx, documentID, payload)
	return args.Error(0)
}
