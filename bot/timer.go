package bot

import (
	"sync"
	"time"

	"github.com/aarondl/multiq/chat"
)

// Timers delivers deferred Timer events into the shared sink. Each id has
// at most one pending delivery; scheduling an id again replaces the old
// one.
type Timers struct {
	sink chan<- chat.SourceEvent

	protect sync.Mutex
	pending map[string]*time.Timer
}

// NewTimers creates a timer service bound to a sink.
func NewTimers(sink chan<- chat.SourceEvent) *Timers {
	return &Timers{
		sink:    sink,
		pending: make(map[string]*time.Timer),
	}
}

// Schedule registers delivery of a Timer(id) event after delay, replacing
// any pending delivery for the same id. A timer past its fire time cannot
// be replaced; at most one event per Schedule call is delivered.
func (t *Timers) Schedule(id string, delay time.Duration) {
	t.protect.Lock()
	defer t.protect.Unlock()

	if old, ok := t.pending[id]; ok {
		old.Stop()
	}
	t.pending[id] = time.AfterFunc(delay, func() {
		t.protect.Lock()
		delete(t.pending, id)
		t.protect.Unlock()

		t.sink <- chat.SourceEvent{
			Source: chat.CoreSource,
			Event:  chat.Timer(id),
		}
	})
}

// StopAll cancels every pending timer. Timers already past their fire time
// still deliver.
func (t *Timers) StopAll() {
	t.protect.Lock()
	defer t.protect.Unlock()

	for id, timer := range t.pending {
		timer.Stop()
		delete(t.pending, id)
	}
}
