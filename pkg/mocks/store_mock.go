package mocks

import (
	"context"

	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of persistence.Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, workflowID string, files map[string]string, opts persistence.SaveOptions) (string, error) {
	args := m.Called(ctx, workflowID, files, opts)

	return args.String(0), args.Error(1)
}

func (m *MockStore) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockStore) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
