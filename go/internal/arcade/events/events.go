package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RoomEvent is the envelope for every observable room transition.
type RoomEvent struct {
	ID        string          `json:"id"`        // Event UUID
	RoomID    int             `json:"room_id"`   // Room id
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// EventType represents the type of room event
type EventType string

const (
	EventTypeRoomCreated     EventType = "RoomCreated"
	EventTypeRoomRemoved     EventType = "RoomRemoved"
	EventTypeStateChanged    EventType = "StateChanged"
	EventTypeTimerTick       EventType = "TimerTick"
	EventTypeBallotUpdated   EventType = "BallotUpdated"
	EventTypePlayerJoined    EventType = "PlayerJoined"
	EventTypePlayerLeft      EventType = "PlayerLeft"
	EventTypePlayerBanned    EventType = "PlayerBanned"
	EventTypeMapPreSelected  EventType = "MapPreSelected"
	EventTypeSettingsChanged EventType = "SettingsChanged"
)

// New builds an event envelope, marshalling payload into Data.
func New(roomID int, eventType EventType, payload interface{}, at time.Time) (RoomEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return RoomEvent{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return RoomEvent{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		Type:      eventType,
		Timestamp: at,
		Data:      data,
	}, nil
}

// Sink receives room events. Publish must not block; rooms call it with their lock held.
type Sink interface {
	Publish(event RoomEvent)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(event RoomEvent)

func (f SinkFunc) Publish(event RoomEvent) { f(event) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(RoomEvent) {})

// Bus fans events out to every subscribed sink.
type Bus struct {
	mu    sync.RWMutex
	sinks []Sink
}

func NewBus(sinks ...Sink) *Bus {
	return &Bus{sinks: sinks}
}

func (b *Bus) Subscribe(sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

func (b *Bus) Publish(event RoomEvent) {
	b.mu.RLock()
	sinks := b.sinks
	b.mu.RUnlock()
	for _, s := range sinks {
		s.Publish(event)
	}
}

// Filter forwards to sink only the events whose type keep accepts.
func Filter(sink Sink, keep func(EventType) bool) Sink {
	return SinkFunc(func(event RoomEvent) {
		if keep(event.Type) {
			sink.Publish(event)
		}
	})
}
