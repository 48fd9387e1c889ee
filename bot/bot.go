/*
Package bot is the core runtime: it builds sources and modules from the
configuration, owns the shared event sink, and runs the serialized
dispatch loop that feeds subscribed modules in priority order.
*/
package bot

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/inconshreveable/log15.v2"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
	"github.com/aarondl/multiq/logger"
	"github.com/aarondl/multiq/modules"
	"github.com/aarondl/multiq/sources"
)

// Sources block on enqueue when modules fall behind, which throttles all
// ingress.
const sinkCapacity = 64

// moduleEntry pairs a built module with its dispatch metadata.
type moduleEntry struct {
	id            string
	priority      uint8
	subscriptions map[chat.SourceID]map[chat.EventType]bool
	module        modules.Module
}

// subscribed reports whether the entry wants events of typ from source.
func (m *moduleEntry) subscribed(source chat.SourceID, typ chat.EventType) bool {
	types, ok := m.subscriptions[source]
	return ok && types[typ]
}

// Bot owns the sources, the modules and the dispatch loop.
type Bot struct {
	// Logger receives the bot's diagnostics. Swap its handler before Run
	// to redirect them.
	Logger log15.Logger

	conf       *config.Config
	sink       chan chat.SourceEvent
	sources    map[chat.SourceID]sources.EventSource
	sourceIDs  []chat.SourceID
	modules    []*moduleEntry
	timers     *Timers
	transcript *logger.Logger

	stopOnce sync.Once
	stopc    chan struct{}
}

// New validates the configuration and builds every source and module.
// Construction is all-or-nothing: an unknown type tag, a reserved source
// id or a bad subscription fails the whole bot.
func New(conf *config.Config) (*Bot, error) {
	if !conf.Validate() {
		return nil, configError(conf.Errors())
	}

	b := &Bot{
		Logger:     log15.New("component", "bot"),
		conf:       conf,
		sink:       make(chan chat.SourceEvent, sinkCapacity),
		sources:    make(map[chat.SourceID]sources.EventSource),
		transcript: logger.New(conf.LogFolder()),
		stopc:      make(chan struct{}),
	}
	b.timers = NewTimers(b.sink)

	for _, id := range conf.SourceNames() {
		entry := conf.Source(id)
		src, err := sources.Build(entry.Type, chat.SourceID(id), b.sink,
			entry.Config)
		if err != nil {
			return nil, errors.Wrapf(err, "bot: building source %q", id)
		}
		b.sources[chat.SourceID(id)] = src
		b.sourceIDs = append(b.sourceIDs, chat.SourceID(id))
	}

	for _, id := range conf.ModuleNames() {
		entry := conf.Module(id)
		mod, err := modules.Build(entry.Type, id, entry.Config)
		if err != nil {
			return nil, errors.Wrapf(err, "bot: building module %q", id)
		}

		subscriptions, err := parseSubscriptions(id, entry.Subscriptions)
		if err != nil {
			return nil, err
		}

		b.modules = append(b.modules, &moduleEntry{
			id:            id,
			priority:      entry.Priority,
			subscriptions: subscriptions,
			module:        mod,
		})
	}

	// ModuleNames is already in configured (lexical) order, so a stable
	// sort keeps it as the tie-break within equal priorities.
	sort.SliceStable(b.modules, func(i, j int) bool {
		return b.modules[i].priority < b.modules[j].priority
	})

	return b, nil
}

// parseSubscriptions resolves the configured event type names.
func parseSubscriptions(moduleID string, raw map[string][]string) (
	map[chat.SourceID]map[chat.EventType]bool, error) {

	subscriptions := make(map[chat.SourceID]map[chat.EventType]bool, len(raw))
	for source, names := range raw {
		types := make(map[chat.EventType]bool, len(names))
		for _, name := range names {
			typ, ok := chat.ParseEventType(name)
			if !ok {
				return nil, fmt.Errorf(
					"bot: module %q subscribes to unknown event type %q",
					moduleID, name)
			}
			types[typ] = true
		}
		subscriptions[chat.SourceID(source)] = types
	}
	return subscriptions, nil
}

func configError(errs []error) error {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("bot: invalid configuration: %s", strings.Join(msgs, "; "))
}

// ConnectAll connects every source in configured order. Any failure is
// fatal at this phase.
func (b *Bot) ConnectAll() error {
	for _, id := range b.sourceIDs {
		if err := b.sources[id].Connect(); err != nil {
			return errors.Wrapf(err, "bot: connecting source %q", id)
		}
	}
	return nil
}

// Run drains the sink until Stop is called. Sink closure is fatal.
func (b *Bot) Run() error {
	for {
		select {
		case event, ok := <-b.sink:
			if !ok {
				b.Logger.Crit("event sink closed")
				return errors.New("bot: event sink closed")
			}
			b.dispatch(event)

		case <-b.stopc:
			b.timers.StopAll()
			return nil
		}
	}
}

// Stop terminates the dispatch loop. Safe to call more than once and from
// any goroutine.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() { close(b.stopc) })
}

// dispatch delivers one event to every subscribed module in priority
// order, honoring stop-propagation.
func (b *Bot) dispatch(event chat.SourceEvent) {
	if event.Source != chat.CoreSource {
		if _, ok := b.sources[event.Source]; !ok {
			b.Logger.Warn("event from unknown source",
				"source", event.Source)
			return
		}
	}

	if err := b.transcript.Log(string(event.Source),
		renderEvent(event.Event)); err != nil {
		b.Logger.Warn("failed to write transcript line",
			"source", event.Source, "err", err)
	}

	typ := event.Event.Type()
	for _, entry := range b.modules {
		if !entry.subscribed(event.Source, typ) {
			continue
		}
		if b.invoke(entry, event) == modules.Stop {
			break
		}
	}
}

// invoke runs one module callback. A panicking module loses the event and
// the loop carries on.
func (b *Bot) invoke(entry *moduleEntry,
	event chat.SourceEvent) (handling modules.Handling) {

	defer func() {
		if r := recover(); r != nil {
			b.Logger.Error("module panicked",
				"module", entry.id, "panic", r)
			handling = modules.Resume
		}
	}()

	return entry.module.HandleEvent(coreAPI{bot: b}, event)
}

// renderEvent produces the transcript form of an inbound event.
func renderEvent(event chat.Event) string {
	switch event.Kind {
	case chat.EventReceivedMessage:
		msg := event.Message
		return msg.Content.DisplayWithNick(msg.Author)
	case chat.EventOther:
		return event.Text
	default:
		return event.String()
	}
}
