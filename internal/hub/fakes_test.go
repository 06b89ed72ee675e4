package hub

import (
	"presence-hub/internal/models"
)

// captureSender records delivered events; optionally fails every send.
type captureSender struct {
	events   []models.OutboundEvent
	failWith error
	closed   bool
}

func (s *captureSender) Send(event models.OutboundEvent) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSender) Close() { s.closed = true }

func (s *captureSender) eventsOfType(eventType string) []models.OutboundEvent {
	var out []models.OutboundEvent
	for _, ev := range s.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (s *captureSender) lastUserList() []models.Participant {
	lists := s.eventsOfType(models.EventUserList)
	if len(lists) == 0 {
		return nil
	}
	return lists[len(lists)-1].Participants
}
