package hub

import (
	"context"
	"fmt"
	"log"
	"time"

	"presence-hub/internal/models"
	"presence-hub/internal/observability"
)

// Store is the narrow view of the storage collaborator the pipeline needs.
// Durability lives behind it; the hub never owns persisted state.
type Store interface {
	AppendMessage(ctx context.Context, roomID, sender, body string, createdAt time.Time) (int64, error)
	MarkRoomRead(ctx context.Context, roomID string) (int, error)
}

// Pipeline validates, timestamps, persists, and dispatches chat messages.
type Pipeline struct {
	registry *Registry
	router   *Router
	store    Store
	maxBody  int

	lastStamp time.Time
	now       func() time.Time

	// delivery ledger, messageID -> state + room
	ledger map[int64]*ledgerEntry
}

type ledgerEntry struct {
	roomID string
	state  models.DeliveryState
}

// NewPipeline builds a pipeline. maxBody caps message bodies in bytes.
func NewPipeline(registry *Registry, router *Router, store Store, maxBody int) *Pipeline {
	return &Pipeline{
		registry: registry,
		router:   router,
		store:    store,
		maxBody:  maxBody,
		now:      time.Now,
		ledger:   make(map[int64]*ledgerEntry),
	}
}

// Submit accepts a message from a registered connection, assigns the server
// timestamp, hands it to storage, and broadcasts it to the room.
//
// Persistence is decoupled from realtime delivery: a storage failure is
// retried once, then degraded to a warning. The broadcast always proceeds.
// Per-recipient delivery failures are folded into the warning list as well.
func (p *Pipeline) Submit(ctx context.Context, connID, roomID, body string) (models.Message, []string, error) {
	conn, ok := p.registry.Get(connID)
	if !ok {
		return models.Message{}, nil, fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	if body == "" {
		return models.Message{}, nil, fmt.Errorf("%w: empty body", ErrInvalidBody)
	}
	if len(body) > p.maxBody {
		return models.Message{}, nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInvalidBody, len(body), p.maxBody)
	}

	msg := models.Message{
		RoomID:    roomID,
		Sender:    conn.Identity,
		Body:      body,
		Status:    models.DeliverySent,
		CreatedAt: p.stamp(),
	}

	var warnings []string
	id, err := p.appendWithRetry(ctx, msg)
	if err != nil {
		log.Printf("message not persisted room=%s sender=%s: %v", roomID, msg.Sender, err)
		observability.IncStorageFailure("append")
		warnings = append(warnings, fmt.Sprintf("message not saved: %v", err))
	} else {
		msg.ID = id
		p.ledger[id] = &ledgerEntry{roomID: roomID, state: models.DeliverySent}
	}

	for _, derr := range p.router.Broadcast(roomID, models.OutboundEvent{Type: models.EventMessage, Message: &msg}) {
		warnings = append(warnings, derr.Error())
	}
	observability.IncMessageSubmitted(roomID)
	return msg, warnings, nil
}

// MarkDelivered advances a message from sent to delivered. Messages already
// read have left the ledger, so a late delivered ack reports unknown rather
// than regressing.
func (p *Pipeline) MarkDelivered(messageID int64) error {
	entry, ok := p.ledger[messageID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMessage, messageID)
	}
	if entry.state.Rank() < models.DeliveryDelivered.Rank() {
		entry.state = models.DeliveryDelivered
	}
	return nil
}

// MarkRead bulk-advances every message of a room to read and mirrors the
// transition to storage. Read is terminal, so advanced entries leave the
// ledger; it only ever holds messages still short of read.
func (p *Pipeline) MarkRead(ctx context.Context, roomID string) (int, error) {
	for id, entry := range p.ledger {
		if entry.roomID == roomID {
			delete(p.ledger, id)
		}
	}

	count, err := p.store.MarkRoomRead(ctx, roomID)
	if err != nil {
		count, err = p.store.MarkRoomRead(ctx, roomID)
	}
	if err != nil {
		log.Printf("mark read failed room=%s: %v", roomID, err)
		observability.IncStorageFailure("mark_read")
		return 0, err
	}
	return count, nil
}

// DeliveryState reports the ledger state of a message still short of read.
func (p *Pipeline) DeliveryState(messageID int64) (models.DeliveryState, bool) {
	entry, ok := p.ledger[messageID]
	if !ok {
		return "", false
	}
	return entry.state, true
}

// stamp returns a server timestamp that is strictly monotonic per hub, so
// assignment order doubles as the broadcast total order.
func (p *Pipeline) stamp() time.Time {
	ts := p.now()
	if !ts.After(p.lastStamp) {
		ts = p.lastStamp.Add(time.Nanosecond)
	}
	p.lastStamp = ts
	return ts
}

func (p *Pipeline) appendWithRetry(ctx context.Context, msg models.Message) (int64, error) {
	id, err := p.store.AppendMessage(ctx, msg.RoomID, msg.Sender, msg.Body, msg.CreatedAt)
	if err == nil {
		return id, nil
	}
	return p.store.AppendMessage(ctx, msg.RoomID, msg.Sender, msg.Body, msg.CreatedAt)
}
