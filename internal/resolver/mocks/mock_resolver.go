package mocks

import (
	"context"

	"wopihost/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, documentID string) (model.StorageObject, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(model.StorageObject), args.Error(1)
}
