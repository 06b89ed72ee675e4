// Package hub implements the realtime presence and messaging core: a
// connection registry, room broadcast router, presence aggregator, and
// message pipeline behind a single facade.
//
// All shared state is owned by one event-processing goroutine. Public
// methods hand closures to that loop and wait for the result, so no
// interleaving of registry or room mutations is ever observable.
package hub

import (
	"context"
	"log"
	"sync"

	"presence-hub/internal/models"
	"presence-hub/internal/observability"
)

// DefaultRoom is the implicit global room every connection joins unless it
// asks for another one.
const DefaultRoom = "global"

// SessionState is the per-connection lifecycle state.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateConnected
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Options tune a Hub.
type Options struct {
	// MaxBodyBytes caps inbound message bodies.
	MaxBodyBytes int
	// TaskBuffer sizes the event loop inbox.
	TaskBuffer int
}

func (o Options) withDefaults() Options {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 4096
	}
	if o.TaskBuffer <= 0 {
		o.TaskBuffer = 256
	}
	return o
}

// Hub is the single entry point wiring transport callbacks to the registry,
// router, presence aggregator, and message pipeline. It owns their
// lifecycle.
type Hub struct {
	registry *Registry
	router   *Router
	presence *PresenceAggregator
	pipeline *Pipeline

	sessions map[string]SessionState

	tasks    chan func()
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	presenceDirty bool
}

// New assembles a hub over the given storage collaborator.
func New(store Store, opts Options) *Hub {
	opts = opts.withDefaults()
	registry := NewRegistry()
	router := NewRouter()
	h := &Hub{
		registry: registry,
		router:   router,
		presence: NewPresenceAggregator(registry, router),
		pipeline: NewPipeline(registry, router, store, opts.MaxBodyBytes),
		sessions: make(map[string]SessionState),
		tasks:    make(chan func(), opts.TaskBuffer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	registry.SetChangeListener(func() { h.presenceDirty = true })
	return h
}

// Start launches the event loop. It must be called exactly once.
func (h *Hub) Start() {
	go h.run()
}

// Stop shuts the event loop down, closing every attached sender. Pending
// tasks are dropped. It waits for the loop to exit or ctx to expire, and is
// safe to call more than once.
func (h *Hub) Stop(ctx context.Context) error {
	h.stopOnce.Do(func() { close(h.stop) })
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.stop:
			h.shutdownSessions()
			return
		case task := <-h.tasks:
			task()
		}
	}
}

func (h *Hub) shutdownSessions() {
	count := h.registry.Len()
	for _, conn := range h.registry.Snapshot() {
		h.router.Detach(conn.ID)
	}
	log.Printf("hub stopped, closed %d connections", count)
}

// do runs fn on the event loop and waits for it to complete.
func (h *Hub) do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	wrapped := func() {
		defer close(ran)
		fn()
	}
	select {
	case h.tasks <- wrapped:
	case <-h.stop:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ran:
		return nil
	case <-h.stop:
		return ErrHubStopped
	}
}

// flushPresence publishes the room snapshot if a registry change was
// recorded during the current task.
func (h *Hub) flushPresence(roomID string) {
	if !h.presenceDirty {
		return
	}
	h.presenceDirty = false
	h.presence.Publish(roomID)
}

// BeginSession records a fresh transport session in the connecting state.
func (h *Hub) BeginSession(ctx context.Context, connID string) error {
	return h.do(ctx, func() {
		h.sessions[connID] = StateConnecting
	})
}

// Connect transitions a session to connected: the connection is registered
// with the supplied identity, attached to its sender, joined to the room
// (the global room when roomID is empty), and a presence update goes out.
func (h *Hub) Connect(ctx context.Context, connID, identity, roomID string, sender Sender) error {
	if roomID == "" {
		roomID = DefaultRoom
	}
	var opErr error
	err := h.do(ctx, func() {
		if _, opErr = h.registry.Register(connID, identity); opErr != nil {
			return
		}
		h.sessions[connID] = StateConnected
		h.router.Attach(connID, sender)
		h.router.Join(connID, roomID)
		observability.IncActiveConnection()
		h.flushPresence(roomID)
	})
	if err != nil {
		return err
	}
	return opErr
}

// UpdateStatus overwrites the presence status of a connected session and
// rebroadcasts the room snapshot.
func (h *Hub) UpdateStatus(ctx context.Context, connID string, status models.Status) error {
	var opErr error
	err := h.do(ctx, func() {
		if opErr = h.registry.UpdateStatus(connID, status); opErr != nil {
			return
		}
		if roomID, ok := h.router.RoomOf(connID); ok {
			h.flushPresence(roomID)
		}
	})
	if err != nil {
		return err
	}
	return opErr
}

// Submit routes a message from a connected session into the pipeline.
func (h *Hub) Submit(ctx context.Context, connID, body string) (models.Message, []string, error) {
	var (
		msg      models.Message
		warnings []string
		opErr    error
	)
	err := h.do(ctx, func() {
		roomID, ok := h.router.RoomOf(connID)
		if !ok {
			roomID = DefaultRoom
		}
		msg, warnings, opErr = h.pipeline.Submit(ctx, connID, roomID, body)
	})
	if err != nil {
		return models.Message{}, nil, err
	}
	return msg, warnings, opErr
}

// Disconnect tears a session down. Terminal and idempotent: a reconnecting
// client always arrives as a fresh session, never a resurrection.
func (h *Hub) Disconnect(ctx context.Context, connID string) error {
	return h.do(ctx, func() {
		roomID, _ := h.router.RoomOf(connID)
		h.router.Detach(connID)
		if roomID != "" {
			h.router.Leave(connID, roomID)
		}
		if _, removed := h.registry.Remove(connID); removed {
			observability.DecActiveConnection()
		}
		// disconnected is terminal; drop the session record entirely so
		// an unknown ID reads back as disconnected.
		delete(h.sessions, connID)
		if roomID != "" {
			h.flushPresence(roomID)
		} else {
			h.presenceDirty = false // connection left no room; nothing to publish
		}
	})
}

// MarkDelivered advances one message's delivery state.
func (h *Hub) MarkDelivered(ctx context.Context, messageID int64) error {
	var opErr error
	if err := h.do(ctx, func() { opErr = h.pipeline.MarkDelivered(messageID) }); err != nil {
		return err
	}
	return opErr
}

// MarkRead bulk-marks a room's messages as read, mirroring the transition
// to the storage collaborator. Returns the number of stored rows updated.
func (h *Hub) MarkRead(ctx context.Context, roomID string) (int, error) {
	var (
		count int
		opErr error
	)
	if err := h.do(ctx, func() { count, opErr = h.pipeline.MarkRead(ctx, roomID) }); err != nil {
		return 0, err
	}
	return count, opErr
}

// PresenceSnapshot returns the participant list of a room.
func (h *Hub) PresenceSnapshot(ctx context.Context, roomID string) ([]models.Participant, error) {
	var out []models.Participant
	if err := h.do(ctx, func() { out = h.presence.SnapshotRoom(roomID) }); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionStateOf reports the lifecycle state of a session. Unknown IDs are
// disconnected: that state is terminal and unrecorded.
func (h *Hub) SessionStateOf(ctx context.Context, connID string) (SessionState, error) {
	state := StateDisconnected
	if err := h.do(ctx, func() {
		if s, ok := h.sessions[connID]; ok {
			state = s
		}
	}); err != nil {
		return StateDisconnected, err
	}
	return state, nil
}

// ConnectionCount reports the number of registered connections.
func (h *Hub) ConnectionCount(ctx context.Context) (int, error) {
	var n int
	if err := h.do(ctx, func() { n = h.registry.Len() }); err != nil {
		return 0, err
	}
	return n, nil
}
