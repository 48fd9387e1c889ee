// Package patterns replies with canned responses to messages matching
// configured regular expressions.
package patterns

import (
	"fmt"
	"regexp"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
	"github.com/aarondl/multiq/modules"
)

func init() {
	modules.Register("patterns", New)
}

type pattern struct {
	re       *regexp.Regexp
	response string
}

// Patterns matches non-command text messages against its configured
// patterns and sends the response for every one that matches.
type Patterns struct {
	id       string
	enabled  bool
	patterns []pattern
}

// New builds a patterns module. Every configured pattern must compile;
// a bad regex fails construction.
func New(id string, conf config.Map) (modules.Module, error) {
	if conf == nil {
		return nil, fmt.Errorf("patterns(%s): module requires a config", id)
	}
	entries, ok := conf.MapList("patterns")
	if !ok || len(entries) == 0 {
		return nil, fmt.Errorf("patterns(%s): config requires patterns", id)
	}

	compiled := make([]pattern, 0, len(entries))
	for i, entry := range entries {
		expr, ok := entry.Str("pattern")
		if !ok {
			return nil, fmt.Errorf("patterns(%s): entry %d has no pattern", id, i)
		}
		response, ok := entry.Str("response")
		if !ok {
			return nil, fmt.Errorf("patterns(%s): entry %d has no response", id, i)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("patterns(%s): bad pattern %q: %v", id, expr, err)
		}
		compiled = append(compiled, pattern{re: re, response: response})
	}

	return &Patterns{
		id:       id,
		enabled:  conf.BoolOr("enabled", true),
		patterns: compiled,
	}, nil
}

// HandleEvent replies to matching text messages. Commands are left alone.
func (p *Patterns) HandleEvent(core modules.CoreAPI,
	event chat.SourceEvent) modules.Handling {

	if !p.enabled || event.Event.Kind != chat.EventReceivedMessage {
		return modules.Resume
	}

	msg := event.Event.Message
	if _, isCmd := modules.FromMessage(msg); isCmd {
		return modules.Resume
	}
	if msg.Content.Kind != chat.ContentText {
		return modules.Resume
	}

	for _, pat := range p.patterns {
		if pat.re.MatchString(msg.Content.Text) {
			core.Send(event.Source, chat.Message{
				Channel: msg.Channel,
				Content: chat.Text(pat.response),
			})
		}
	}
	return modules.Resume
}
