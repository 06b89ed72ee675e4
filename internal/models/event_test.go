package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboundEventValidate(t *testing.T) {
	cases := []struct {
		name    string
		event   InboundEvent
		wantErr bool
	}{
		{name: "join", event: InboundEvent{Type: EventJoin, Identity: "Alice"}},
		{name: "join without identity", event: InboundEvent{Type: EventJoin}},
		{name: "message", event: InboundEvent{Type: EventMessage, Body: "hi"}},
		{name: "message without body", event: InboundEvent{Type: EventMessage}, wantErr: true},
		{name: "status online", event: InboundEvent{Type: EventStatus, Status: StatusOnline}},
		{name: "status away", event: InboundEvent{Type: EventStatus, Status: StatusAway}},
		{name: "status offline is reserved", event: InboundEvent{Type: EventStatus, Status: StatusOffline}, wantErr: true},
		{name: "unknown type", event: InboundEvent{Type: "poke"}, wantErr: true},
		{name: "empty type", event: InboundEvent{}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDeliveryStateRank(t *testing.T) {
	assert.Less(t, DeliverySent.Rank(), DeliveryDelivered.Rank())
	assert.Less(t, DeliveryDelivered.Rank(), DeliveryRead.Rank())
	assert.Zero(t, DeliveryState("bogus").Rank())
}

func TestStatusValidUpdate(t *testing.T) {
	assert.True(t, StatusOnline.ValidUpdate())
	assert.True(t, StatusAway.ValidUpdate())
	assert.False(t, StatusOffline.ValidUpdate())
	assert.False(t, Status("idle").ValidUpdate())
}
