package hub

import (
	"presence-hub/internal/models"
)

// PresenceAggregator rebroadcasts the full participant list on every
// registry change. Snapshots replace, they never diff.
type PresenceAggregator struct {
	registry *Registry
	router   *Router
}

// NewPresenceAggregator wires the aggregator to its sources.
func NewPresenceAggregator(registry *Registry, router *Router) *PresenceAggregator {
	return &PresenceAggregator{registry: registry, router: router}
}

// SnapshotRoom derives the participant list of one room from the registry.
func (p *PresenceAggregator) SnapshotRoom(roomID string) []models.Participant {
	members := make(map[string]struct{})
	for _, id := range p.router.Members(roomID) {
		members[id] = struct{}{}
	}
	out := make([]models.Participant, 0, len(members))
	for _, conn := range p.registry.Snapshot() {
		if _, ok := members[conn.ID]; ok {
			out = append(out, models.Participant{Identity: conn.Identity, Status: conn.Status})
		}
	}
	return out
}

// Publish broadcasts the current participant snapshot to the room.
func (p *PresenceAggregator) Publish(roomID string) []DeliveryError {
	event := models.OutboundEvent{
		Type:         models.EventUserList,
		Participants: p.SnapshotRoom(roomID),
	}
	return p.router.Broadcast(roomID, event)
}
