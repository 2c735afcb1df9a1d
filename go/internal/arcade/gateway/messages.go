package gateway

import (
	"encoding/json"

	"github.com/mcdev12/arcade/go/internal/arcade/events"
)

// MessageKind tells clients how to read an OutboundMessage.
type MessageKind string

const (
	KindEvent  MessageKind = "event"
	KindNotice MessageKind = "notice"
	KindKicked MessageKind = "kicked"
)

// OutboundMessage is what subscribers receive over the WebSocket.
type OutboundMessage struct {
	Kind   MessageKind       `json:"kind"`
	RoomID int               `json:"room_id,omitempty"`
	Event  *events.RoomEvent `json:"event,omitempty"`
	Notice string            `json:"notice,omitempty"`
}

// ParseOutboundMessage decodes a message and, for events, its payload.
func ParseOutboundMessage(data []byte) (OutboundMessage, interface{}, error) {
	var msg OutboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return OutboundMessage{}, nil, err
	}
	if msg.Kind != KindEvent || msg.Event == nil {
		return msg, nil, nil
	}
	payload, err := events.ParsePayload(*msg.Event)
	if err != nil {
		return msg, nil, err
	}
	return msg, payload, nil
}
