package tui

import (
	"sync"

	"github.com/redcode-editor/redcode/internal/event"
)

// eventBufferSize bounds the events queued between the bus and the update
// loop. The view re-reads session state on every message, so a dropped
// structural event only delays a repaint.
const eventBufferSize = 256

// eventForwarder moves bus events into a channel the update loop reads from.
// Handlers run on whichever goroutine published, including the update loop
// itself, so forwarding never blocks.
type eventForwarder struct {
	bus *event.Bus
	sub string
	ch  chan event.Event

	mu     sync.Mutex
	closed bool
}

func newEventForwarder(bus *event.Bus) *eventForwarder {
	f := &eventForwarder{
		bus: bus,
		ch:  make(chan event.Event, eventBufferSize),
	}
	f.sub = bus.SubscribeAll(f.forward)
	return f
}

func (f *eventForwarder) forward(ev event.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.ch <- ev:
	default:
	}
}

// Events returns the receive side of the forwarder.
func (f *eventForwarder) Events() <-chan event.Event {
	return f.ch
}

// Close unsubscribes from the bus and closes the channel.
func (f *eventForwarder) Close() {
	f.bus.Unsubscribe(f.sub)
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
}
