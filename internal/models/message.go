package models

import "time"

// DeliveryState tracks how far a message has progressed toward its readers.
// Transitions are monotonic: sent -> delivered -> read.
type DeliveryState string

const (
	DeliverySent      DeliveryState = "sent"
	DeliveryDelivered DeliveryState = "delivered"
	DeliveryRead      DeliveryState = "read"
)

// Rank orders delivery states so transitions can be checked for regressions.
func (s DeliveryState) Rank() int {
	switch s {
	case DeliverySent:
		return 1
	case DeliveryDelivered:
		return 2
	case DeliveryRead:
		return 3
	}
	return 0
}

// Message is a chat message flowing through the hub. ID is zero until the
// storage collaborator has durably appended it.
type Message struct {
	ID        int64         `db:"id" json:"id,omitempty"`
	RoomID    string        `db:"room_id" json:"room_id"`
	Sender    string        `db:"sender" json:"sender"`
	Body      string        `db:"body" json:"body"`
	Status    DeliveryState `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}
