package bot

import (
	"fmt"
	"time"

	"github.com/aarondl/multiq/chat"
)

// UnknownSourceError is returned by the facade when a module names a
// source that does not exist.
type UnknownSourceError struct {
	Source chat.SourceID
}

func (e UnknownSourceError) Error() string {
	return fmt.Sprintf("bot: unknown source %q", e.Source)
}

// coreAPI is the restricted facade handed to modules during dispatch. It
// exposes exactly sending, nick lookup and timer scheduling; sources and
// other modules stay out of reach.
type coreAPI struct {
	bot *Bot
}

// Send writes the outbound transcript line for the source and delegates to
// the source's send. The facade is the only send path, which keeps the
// transcript complete.
func (a coreAPI) Send(source chat.SourceID, msg chat.Message) error {
	src, ok := a.bot.sources[source]
	if !ok {
		return UnknownSourceError{Source: source}
	}

	line := msg.Content.DisplayWithNick(src.Nick())
	if err := a.bot.transcript.Log(string(source), line); err != nil {
		a.bot.Logger.Warn("failed to write transcript line",
			"source", source, "err", err)
	}

	return src.Send(msg.Channel, msg.Content)
}

// Nick returns the bot's nick on the named source, empty when the source
// is unknown or disconnected.
func (a coreAPI) Nick(source chat.SourceID) string {
	src, ok := a.bot.sources[source]
	if !ok {
		return ""
	}
	return src.Nick()
}

// ScheduleTimer forwards to the timer service.
func (a coreAPI) ScheduleTimer(id string, delay time.Duration) {
	a.bot.timers.Schedule(id, delay)
}
