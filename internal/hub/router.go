package hub

import (
	"log"

	"presence-hub/internal/models"
	"presence-hub/internal/observability"
)

// Sender delivers outbound events to one connection. Implementations must
// not block: a full send buffer is an error, not a stall.
type Sender interface {
	Send(event models.OutboundEvent) error
	Close()
}

// Router groups connections into rooms and fans events out to all members.
// Like the registry it is mutated only by the Hub's event loop.
type Router struct {
	rooms   map[string][]string // ordered member conn IDs
	member  map[string]string   // connID -> roomID, at most one room
	senders map[string]Sender
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		rooms:   make(map[string][]string),
		member:  make(map[string]string),
		senders: make(map[string]Sender),
	}
}

// Attach binds the transport sender for a connection.
func (rt *Router) Attach(connID string, s Sender) {
	rt.senders[connID] = s
}

// Detach unbinds and closes the sender, dropping any pending sends.
func (rt *Router) Detach(connID string) {
	if s, ok := rt.senders[connID]; ok {
		delete(rt.senders, connID)
		s.Close()
	}
}

// Join adds a connection to a room. Joining while already a member of
// another room moves the connection.
func (rt *Router) Join(connID, roomID string) {
	if current, ok := rt.member[connID]; ok {
		if current == roomID {
			return
		}
		rt.Leave(connID, current)
	}
	rt.member[connID] = roomID
	rt.rooms[roomID] = append(rt.rooms[roomID], connID)
}

// Leave removes a connection from a room. Idempotent; empty rooms are
// deleted.
func (rt *Router) Leave(connID, roomID string) {
	members, ok := rt.rooms[roomID]
	if !ok {
		return
	}
	for i, id := range members {
		if id == connID {
			rt.rooms[roomID] = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(rt.rooms[roomID]) == 0 {
		delete(rt.rooms, roomID)
	}
	if rt.member[connID] == roomID {
		delete(rt.member, connID)
	}
}

// RoomOf returns the room a connection is member of.
func (rt *Router) RoomOf(connID string) (string, bool) {
	roomID, ok := rt.member[connID]
	return roomID, ok
}

// Members returns the member connection IDs of a room in join order.
func (rt *Router) Members(roomID string) []string {
	return append([]string(nil), rt.rooms[roomID]...)
}

// Broadcast delivers event to every current member of the room. Delivery is
// best-effort per connection: one failed recipient never blocks the rest.
// Failures are returned as non-fatal per-connection delivery errors.
func (rt *Router) Broadcast(roomID string, event models.OutboundEvent) []DeliveryError {
	var failed []DeliveryError
	for _, connID := range rt.rooms[roomID] {
		s, ok := rt.senders[connID]
		if !ok {
			continue
		}
		if err := s.Send(event); err != nil {
			log.Printf("broadcast delivery failed room=%s conn=%s: %v", roomID, connID, err)
			observability.IncDeliveryFailure(event.Type)
			failed = append(failed, DeliveryError{ConnID: connID, Err: err})
		}
	}
	return failed
}
