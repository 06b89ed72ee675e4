package observability

import "context"

// Publisher is the broker-facing side of event publication. The concrete
// implementation lives in internal/rabbitmq; this package only routes
// envelopes through it and counts failures.
type Publisher interface {
	PublishWithHeaders(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

var defaultPublisher Publisher

// SetPublisher installs the broker publisher used by PublishEvent.
func SetPublisher(publisher Publisher) {
	defaultPublisher = publisher
}

// PublishEvent sends one envelope through the installed publisher. A missing
// publisher is a no-op; a publish failure is counted and returned.
func PublishEvent(ctx context.Context, routingKey string, event any, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	err := defaultPublisher.PublishWithHeaders(ctx, routingKey, event, headers)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}

// EventEnvelope wraps a hub event for publication to the message broker.
type EventEnvelope struct {
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
	Payload   any    `json:"payload"`
}

// WSEventPayload is the payload of a websocket lifecycle event.
type WSEventPayload struct {
	Room       string `json:"room"`
	Event      string `json:"event"`
	ConnID     string `json:"conn_id"`
	Identity   string `json:"identity"`
	IP         string `json:"ip"`
	DurationMS int64  `json:"duration_ms"`
	Reason     string `json:"reason"`
}

// BuildHeaders assembles the correlation headers attached to published
// events.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
