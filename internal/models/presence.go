package models

// Status is the presence status of a participant.
type Status string

const (
	StatusOnline Status = "online"
	// StatusAway marks a participant that is connected but inactive.
	StatusAway Status = "away"
	// StatusOffline is a pending-removal marker. Registry rows never carry
	// it; it only appears at the protocol boundary.
	StatusOffline Status = "offline"
)

// ValidUpdate reports whether a status may be set by a client. Offline is
// reserved for disconnect handling.
func (s Status) ValidUpdate() bool {
	return s == StatusOnline || s == StatusAway
}

// Participant is one entry of a presence snapshot.
type Participant struct {
	Identity string `json:"identity"`
	Status   Status `json:"status"`
}
