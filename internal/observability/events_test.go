package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"presence-hub/internal/mocks"
	"presence-hub/internal/observability"
)

func TestPublishEventDelegatesWithHeaders(t *testing.T) {
	pub := new(mocks.PublisherMock)
	observability.SetPublisher(pub)
	t.Cleanup(func() { observability.SetPublisher(nil) })

	envelope := observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   observability.WSEventPayload{Room: "lobby", Event: "ws_connect", ConnID: "c1"},
	}
	headers := observability.BuildHeaders("req-1", "trace-1")
	pub.On("PublishWithHeaders", mock.Anything, "ws_events.rooms", envelope, headers).Return(nil).Once()

	err := observability.PublishEvent(context.Background(), "ws_events.rooms", envelope, headers)
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestPublishEventWithoutPublisherIsNoop(t *testing.T) {
	observability.SetPublisher(nil)

	err := observability.PublishEvent(context.Background(), "ws_events.rooms", observability.EventEnvelope{}, nil)
	require.NoError(t, err)
}

func TestPublishEventPropagatesFailure(t *testing.T) {
	pub := new(mocks.PublisherMock)
	observability.SetPublisher(pub)
	t.Cleanup(func() { observability.SetPublisher(nil) })

	pub.On("PublishWithHeaders", mock.Anything, "ws_events.rooms", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	err := observability.PublishEvent(context.Background(), "ws_events.rooms", observability.EventEnvelope{}, nil)
	require.ErrorIs(t, err, assert.AnError)
	pub.AssertExpectations(t)
}

func TestBuildHeaders(t *testing.T) {
	headers := observability.BuildHeaders("req-1", "trace-1")
	assert.Equal(t, map[string]string{"x-request-id": "req-1", "trace_id": "trace-1"}, headers)

	assert.Empty(t, observability.BuildHeaders("", ""))
}
