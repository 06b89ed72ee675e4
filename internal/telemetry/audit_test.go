package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"presence-hub/internal/mocks"
	"presence-hub/internal/telemetry"
)

func TestAuditEmitterPublishesEnvelope(t *testing.T) {
	pub := new(mocks.PublisherMock)

	var published telemetry.AuditEnvelope
	pub.On("Publish", mock.Anything, "audit.presence_hub", mock.AnythingOfType("telemetry.AuditEnvelope")).
		Run(func(args mock.Arguments) {
			published = args.Get(2).(telemetry.AuditEnvelope)
		}).
		Return(nil).Once()

	emitter := telemetry.NewAuditEmitter(pub, "audit.presence_hub", "presence-hub", "test")
	emitter.Emit(context.Background(), "INFO", "lobby", "room marked read", "req-1", "alice")

	pub.AssertExpectations(t)
	assert.Equal(t, 1, published.SchemaVersion)
	assert.Equal(t, "audit_log", published.EventType)
	assert.Equal(t, "presence-hub", published.Service)
	assert.Equal(t, "test", published.Environment)
	assert.Equal(t, "req-1", published.RequestID)
	assert.Equal(t, "alice", published.Identity)
	assert.Equal(t, "INFO", published.Payload.Level)
	assert.Equal(t, "lobby", published.Payload.Room)
	assert.Equal(t, "room marked read", published.Payload.Text)
	require.NotEmpty(t, published.OccurredAt)
}

func TestAuditEmitterPublishFailureIsSwallowed(t *testing.T) {
	pub := new(mocks.PublisherMock)
	pub.On("Publish", mock.Anything, "audit.presence_hub", mock.Anything).Return(assert.AnError).Once()

	emitter := telemetry.NewAuditEmitter(pub, "audit.presence_hub", "presence-hub", "test")
	emitter.Emit(context.Background(), "ERROR", "", "storage degraded", "req-2", "")

	pub.AssertExpectations(t)
}

func TestAuditEmitterNilSafe(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	emitter.Emit(context.Background(), "INFO", "", "ignored", "", "")

	emitter = telemetry.NewAuditEmitter(nil, "audit.presence_hub", "presence-hub", "test")
	emitter.Emit(context.Background(), "INFO", "", "ignored", "", "")
}
