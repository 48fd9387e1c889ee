/*
Package sources defines the event source abstraction and the adapters that
translate chat network traffic into normalized events.

A source owns a background worker that reads from its network and pushes
chat.SourceEvents into the shared sink. Sources are built through a registry
of factories keyed by the configured type tag, so the core never needs to
know concrete source types.
*/
package sources

import (
	"fmt"
	"sync"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
)

// SourceType enumerates the supported kinds of event source.
type SourceType uint8

// The supported source types.
const (
	Console SourceType = iota
	Irc
	Slack
	Discord
)

// String returns the configuration tag of the source type.
func (t SourceType) String() string {
	switch t {
	case Console:
		return "Console"
	case Irc:
		return "Irc"
	case Slack:
		return "Slack"
	case Discord:
		return "Discord"
	}
	return fmt.Sprintf("SourceType(%d)", uint8(t))
}

// EventSource is the capability set of one connected chat network. All
// implementations push their events into the sink they were built with.
type EventSource interface {
	// Connect establishes the network session and spawns the worker that
	// emits events. Calling Connect on a connected source discards the
	// prior session and connects anew.
	Connect() error
	// Join joins a channel on the network.
	Join(channel string) error
	// Send delivers content to a channel on the network. It fails with a
	// DisconnectedError when the source is not connected.
	Send(dst chat.Channel, content chat.MessageContent) error
	// Reconnect re-establishes the session after a user-triggered request.
	Reconnect() error
	// Nick returns the bot's current nickname on the network, or the empty
	// string when disconnected or unknown.
	Nick() string
	// Type returns the kind of this source.
	Type() SourceType
}

// Builder creates a source from its id, the shared sink and its opaque
// configuration. conf is nil when the entry had no config table.
type Builder func(id chat.SourceID, sink chan<- chat.SourceEvent,
	conf config.Map) (EventSource, error)

var (
	registryProtect sync.RWMutex
	registry        = make(map[string]Builder)
)

// Register installs a source builder under a type tag. Registering the same
// tag twice panics; it is a programming error.
func Register(tag string, builder Builder) {
	registryProtect.Lock()
	defer registryProtect.Unlock()

	if _, ok := registry[tag]; ok {
		panic("sources: duplicate builder registered: " + tag)
	}
	registry[tag] = builder
}

// Build looks up the builder for tag and creates the source. An unknown tag
// is an error.
func Build(tag string, id chat.SourceID, sink chan<- chat.SourceEvent,
	conf config.Map) (EventSource, error) {

	registryProtect.RLock()
	builder, ok := registry[tag]
	registryProtect.RUnlock()

	if !ok {
		return nil, fmt.Errorf("sources: unknown source type %q", tag)
	}
	return builder(id, sink, conf)
}

func init() {
	Register("Console", NewConsole)
	Register("Irc", NewIRC)
	Register("Slack", NewSlack)
	Register("Discord", NewDiscord)
}
