package mocks

import (
	"context"

	"studio-server/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// Mock EventPublisher
type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishStudioEvent(ctx context.Context, event messaging.StudioEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
