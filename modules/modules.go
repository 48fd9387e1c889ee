/*
Package modules defines the module abstraction: user reactors that consume
normalized events and may send messages or schedule timers through the core
facade. Concrete modules register a builder here under a type tag; the core
builds them from configuration and never needs to know concrete types.
*/
package modules

import (
	"fmt"
	"sync"
	"time"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
)

// Handling is a module's verdict on whether later modules may see the
// current event.
type Handling uint8

// The handling verdicts.
const (
	// Resume lets the dispatch continue to the next subscribed module.
	Resume Handling = iota
	// Stop terminates dispatch of the current event.
	Stop
)

// CoreAPI is the surface the core exposes to modules during dispatch. It is
// the only way modules may reach sources or timers; they never hold source
// references and cannot reach other modules.
type CoreAPI interface {
	// Send delivers a message through the named source. The transcript
	// line is written before delivery.
	Send(source chat.SourceID, msg chat.Message) error
	// Nick returns the bot's nick on the named source, or empty.
	Nick(source chat.SourceID) string
	// ScheduleTimer schedules delivery of a Timer(id) event after delay.
	// Scheduling an id that is already pending replaces it.
	ScheduleTimer(id string, delay time.Duration)
}

// Module is a single event reactor. HandleEvent runs on the dispatch
// goroutine; long work belongs in a worker the module owns.
type Module interface {
	HandleEvent(core CoreAPI, event chat.SourceEvent) Handling
}

// Builder creates a module from its configured id and opaque config. conf
// is nil when the entry had no config table.
type Builder func(id string, conf config.Map) (Module, error)

var (
	registryProtect sync.RWMutex
	registry        = make(map[string]Builder)
)

// Register installs a module builder under a type tag. Registering the
// same tag twice panics; it is a programming error.
func Register(tag string, builder Builder) {
	registryProtect.Lock()
	defer registryProtect.Unlock()

	if _, ok := registry[tag]; ok {
		panic("modules: duplicate builder registered: " + tag)
	}
	registry[tag] = builder
}

// Build looks up the builder for tag and creates the module. An unknown
// tag is an error.
func Build(tag, id string, conf config.Map) (Module, error) {
	registryProtect.RLock()
	builder, ok := registry[tag]
	registryProtect.RUnlock()

	if !ok {
		return nil, fmt.Errorf("modules: unknown module type %q", tag)
	}
	return builder(id, conf)
}
