package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"presence-hub/internal/identity"
	"presence-hub/internal/models"
	"presence-hub/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) AppendMessage(ctx context.Context, roomID, sender, body string, createdAt time.Time) (int64, error) {
	args := m.Called(ctx, roomID, sender, body, createdAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) MarkRoomRead(ctx context.Context, roomID string) (int, error) {
	args := m.Called(ctx, roomID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) ListRoomMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) Resolve(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ identity.Resolver = (*ResolverMock)(nil)
