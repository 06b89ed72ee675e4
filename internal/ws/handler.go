package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"presence-hub/internal/hub"
	"presence-hub/internal/identity"
	"presence-hub/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades websocket connections and hands them to the hub.
type Handler struct {
	hub      *hub.Hub
	resolver identity.Resolver
	opts     Options
}

// NewHandler constructs a Handler.
func NewHandler(h *hub.Hub, resolver identity.Resolver, opts Options) *Handler {
	return &Handler{hub: h, resolver: resolver, opts: opts}
}

// Handle authenticates, upgrades, and starts the connection pumps. The
// session stays in the connecting state until the client sends its join
// event.
func (h *Handler) Handle(c *gin.Context) {
	roomID := c.Param("room_id")
	if roomID == "" {
		roomID = hub.DefaultRoom
	}

	ctx, span := otel.Tracer("presence-hub/ws").Start(c.Request.Context(), "ws.handshake",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	resolved, err := h.resolver.Resolve(ctx, bearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      uuid.NewString(),
		Identity:    resolved,
		Room:        roomID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, h.hub, info, h.opts)

	if err := h.hub.BeginSession(ctx, info.ConnID); err != nil {
		client.Close()
		return
	}

	observability.IncWSEvent("ws_connect")
	publishLifecycleEvent(ctx, info, "ws_connect", "")

	go client.writePump()
	go client.readPump(context.WithoutCancel(ctx))
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			return token
		}
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func publishLifecycleEvent(ctx context.Context, info ConnInfo, event, reason string) {
	payload := observability.WSEventPayload{
		Room:       info.Room,
		Event:      event,
		ConnID:     info.ConnID,
		Identity:   info.Identity,
		IP:         info.IP,
		DurationMS: time.Since(info.ConnectedAt).Milliseconds(),
		Reason:     reason,
	}
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.rooms", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}
