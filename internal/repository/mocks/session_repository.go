package mocks

import (
	"context"

	"studio-server/internal/repository"

	"github.com/stretchr/testify/mock"
)

// Mock SessionRepository
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Get(ctx context.Context, id string) (*repository.Session, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*repository.Session)
	return s, args.Error(1)
}
func (m *SessionRepository) Save(ctx context.Context, s *repository.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
func (m *SessionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *SessionRepository) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
