package hub

import (
	"fmt"
	"time"

	"presence-hub/internal/models"
)

// Connection is a live transport session known to the registry.
type Connection struct {
	ID       string
	Identity string
	Status   models.Status
	JoinedAt time.Time
}

// Registry maps live connection IDs to participant identity and presence
// status. It is not safe for concurrent use on its own: the Hub's event loop
// is the only mutator, everything else reads snapshots.
type Registry struct {
	conns    map[string]*Connection
	order    []string
	onChange func()
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Connection),
		now:   time.Now,
	}
}

// SetChangeListener installs the callback invoked after every membership or
// status mutation.
func (r *Registry) SetChangeListener(fn func()) {
	r.onChange = fn
}

// Register inserts a connection with status online.
func (r *Registry) Register(connID, identity string) (Connection, error) {
	if _, ok := r.conns[connID]; ok {
		return Connection{}, fmt.Errorf("%w: %s", ErrDuplicateConnection, connID)
	}
	conn := &Connection{
		ID:       connID,
		Identity: identity,
		Status:   models.StatusOnline,
		JoinedAt: r.now(),
	}
	r.conns[connID] = conn
	r.order = append(r.order, connID)
	r.notify()
	return *conn, nil
}

// UpdateStatus overwrites the presence status of a registered connection.
func (r *Registry) UpdateStatus(connID string, status models.Status) error {
	conn, ok := r.conns[connID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	conn.Status = status
	r.notify()
	return nil
}

// Remove deletes a connection. It is idempotent: removing an absent ID is a
// no-op reporting false. The change listener fires only on actual removal.
func (r *Registry) Remove(connID string) (string, bool) {
	conn, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	delete(r.conns, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.notify()
	return conn.Identity, true
}

// Get returns the connection record for an ID.
func (r *Registry) Get(connID string) (Connection, bool) {
	conn, ok := r.conns[connID]
	if !ok {
		return Connection{}, false
	}
	return *conn, true
}

// Snapshot returns a point-in-time copy of all connections in insertion
// order.
func (r *Registry) Snapshot() []Connection {
	out := make([]Connection, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.conns[id])
	}
	return out
}

// Len reports the number of live connections.
func (r *Registry) Len() int { return len(r.conns) }

func (r *Registry) notify() {
	if r.onChange != nil {
		r.onChange()
	}
}
