// Package eventstest provides an in-memory events.Sink for tests.
package eventstest

import (
	"sync"

	"github.com/mcdev12/arcade/go/internal/arcade/events"
)

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []events.RoomEvent
}

var _ events.Sink = (*Recorder)(nil)

func (r *Recorder) Publish(event events.RoomEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []events.RoomEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.RoomEvent, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of one type.
func (r *Recorder) OfType(t events.EventType) []events.RoomEvent {
	var out []events.RoomEvent
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
