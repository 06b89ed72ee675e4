package models

import (
	"errors"
	"fmt"
)

// Inbound event types accepted from clients.
const (
	EventJoin    = "join"
	EventMessage = "message"
	EventStatus  = "status"
)

// Outbound event types broadcast to clients.
const (
	EventUserList = "user_list"
	EventWarning  = "warning"
)

var ErrUnknownEventType = errors.New("unknown event type")

// InboundEvent is the closed set of client -> hub events. The sender
// connection is implicit; Type selects which payload fields are meaningful.
type InboundEvent struct {
	Type     string `json:"type"`
	Identity string `json:"identity,omitempty"`
	Body     string `json:"body,omitempty"`
	Status   Status `json:"status,omitempty"`
}

// Validate checks the payload shape at the protocol boundary.
func (e InboundEvent) Validate() error {
	switch e.Type {
	case EventJoin:
		return nil
	case EventMessage:
		if e.Body == "" {
			return errors.New("message event requires a body")
		}
		return nil
	case EventStatus:
		if !e.Status.ValidUpdate() {
			return fmt.Errorf("invalid status %q", e.Status)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
}

// OutboundEvent is broadcast through websockets.
type OutboundEvent struct {
	Type         string        `json:"type"`
	Participants []Participant `json:"participants,omitempty"`
	Message      *Message      `json:"message,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
}
