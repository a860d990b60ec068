package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProducer is a mock implementation of collaborator.Producer interface.
type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Produce(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)

	return args.String(0), args.Error(1)
}
