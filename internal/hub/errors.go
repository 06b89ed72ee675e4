package hub

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrUnknownConnection   = errors.New("unknown connection")
	ErrInvalidBody         = errors.New("invalid message body")
	ErrUnknownMessage      = errors.New("unknown message")
	ErrHubStopped          = errors.New("hub stopped")
)

// DeliveryError records a failed send to a single recipient during a
// broadcast. It is non-fatal: the broadcast continues past it.
type DeliveryError struct {
	ConnID string
	Err    error
}

func (e DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.ConnID, e.Err)
}

func (e DeliveryError) Unwrap() error { return e.Err }
