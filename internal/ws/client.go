package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"presence-hub/internal/hub"
	"presence-hub/internal/models"
	"presence-hub/internal/observability"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	// ErrSlowConsumer means the send buffer overflowed. Policy is
	// disconnect-on-overflow: the connection is closed rather than letting
	// an unbounded queue build up behind one stalled reader.
	ErrSlowConsumer = errors.New("slow consumer, send buffer full")
)

// Options tune per-connection transport behavior.
type Options struct {
	SendBuffer      int
	MaxMessageBytes int64
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	PingInterval    time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 4096
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 60 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 54 * time.Second
	}
	return o
}

// Client is one websocket connection bridged to the hub. It implements
// hub.Sender with a bounded buffered channel so a slow recipient can never
// stall a broadcast.
type Client struct {
	info ConnInfo
	conn *websocket.Conn
	hub  *hub.Hub
	opts Options

	send      chan models.OutboundEvent
	closed    chan struct{}
	closeOnce sync.Once

	joined bool
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, h *hub.Hub, info ConnInfo, opts Options) *Client {
	opts = opts.withDefaults()
	if conn != nil {
		conn.SetReadLimit(opts.MaxMessageBytes)
	}
	return &Client{
		info:   info,
		conn:   conn,
		hub:    h,
		opts:   opts,
		send:   make(chan models.OutboundEvent, opts.SendBuffer),
		closed: make(chan struct{}),
	}
}

// Send queues an event for delivery. It never blocks.
func (c *Client) Send(event models.OutboundEvent) error {
	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- event:
		return nil
	default:
		observability.IncWSEvent("ws_overflow")
		c.Close()
		return ErrSlowConsumer
	}
}

// Close tears the transport down. Pending sends are dropped, not retried.
// Safe to call from any goroutine, any number of times.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) readPump(ctx context.Context) {
	var closeReason string
	defer func() {
		c.Close()
		if err := c.hub.Disconnect(context.Background(), c.info.ConnID); err != nil {
			log.Printf("disconnect failed conn=%s: %v", c.info.ConnID, err)
		}
		observability.IncWSEvent("ws_disconnect")
		publishLifecycleEvent(ctx, c.info, "ws_disconnect", closeReason)
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.IdleTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.IdleTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				publishLifecycleEvent(ctx, c.info, "ws_error", closeReason)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.IdleTimeout))
		c.handleInbound(ctx, raw)
	}
}

// handleInbound validates and dispatches one client event. Malformed events
// reject only the offending request; the connection stays up.
func (c *Client) handleInbound(ctx context.Context, raw []byte) {
	var event models.InboundEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Printf("invalid event from %s: %v", c.info.ConnID, err)
		c.warn("malformed event payload")
		return
	}
	if err := event.Validate(); err != nil {
		log.Printf("rejected event from %s: %v", c.info.ConnID, err)
		c.warn(err.Error())
		return
	}

	switch event.Type {
	case models.EventJoin:
		c.handleJoin(ctx, event)
	case models.EventMessage:
		c.handleMessage(ctx, event)
	case models.EventStatus:
		if err := c.hub.UpdateStatus(ctx, c.info.ConnID, event.Status); err != nil {
			c.warn(err.Error())
		}
	}
}

func (c *Client) handleJoin(ctx context.Context, event models.InboundEvent) {
	if c.joined {
		c.warn("already joined")
		return
	}
	identity := c.info.Identity
	if identity == "" {
		identity = event.Identity
	}
	if identity == "" {
		c.warn("join requires an identity")
		return
	}
	if err := c.hub.Connect(ctx, c.info.ConnID, identity, c.info.Room, c); err != nil {
		log.Printf("join failed conn=%s: %v", c.info.ConnID, err)
		c.warn(err.Error())
		return
	}
	c.joined = true
	c.info.Identity = identity
}

func (c *Client) handleMessage(ctx context.Context, event models.InboundEvent) {
	_, warnings, err := c.hub.Submit(ctx, c.info.ConnID, event.Body)
	if err != nil {
		c.warn(err.Error())
		return
	}
	// Non-fatal: sender still saw the message delivered in realtime.
	if len(warnings) > 0 {
		_ = c.Send(models.OutboundEvent{Type: models.EventWarning, Warnings: warnings})
	}
}

// warn reports a rejection back to this connection only.
func (c *Client) warn(text string) {
	_ = c.Send(models.OutboundEvent{Type: models.EventWarning, Warnings: []string{text}})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.closed:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case event := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteJSON(event); err != nil {
				log.Printf("websocket write error conn=%s: %v", c.info.ConnID, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
