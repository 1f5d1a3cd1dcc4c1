package events

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockPublisher is a mock implementation of the Publisher interface for
// tests in other packages.
type MockPublisher struct {
	mock.Mock
}

// PublishRunCompleted is the mock implementation of PublishRunCompleted.
func (m *MockPublisher) PublishRunCompleted(ctx context.Context, event RunCompleted) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Close is the mock implementation of Close.
func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
