package rabbitmq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherFallsBackToNoop(t *testing.T) {
	pub := NewPublisher("", "hub_events")
	assert.Equal(t, "noop", PublisherMode(pub))

	require.NoError(t, pub.Publish(context.Background(), "ws_events.rooms", map[string]string{"k": "v"}))
	require.NoError(t, pub.PublishWithHeaders(context.Background(), "ws_events.rooms", map[string]string{"k": "v"}, map[string]string{"x-request-id": "req-1"}))
	require.NoError(t, pub.Close())
}

func TestPublisherModeUnknown(t *testing.T) {
	assert.Equal(t, "unknown", PublisherMode(nil))
}
