package modules

import (
	"strings"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
)

// Command is a parsed bot command: a text message whose body begins with the
// configured command character. Params[0] is the command name, the rest of
// the params follow in order.
type Command struct {
	Sender  string
	Channel chat.Channel
	Params  []string
}

// FromMessage parses a message into a command. It returns false when the
// message is not text or does not start with the command character.
//
// The body after the command character splits on single spaces, so repeated
// spaces produce empty params. A message that is only the command character
// yields a single empty-named param.
func FromMessage(msg chat.Message) (Command, bool) {
	if msg.Content.Kind != chat.ContentText {
		return Command{}, false
	}

	cmdChar := config.Global().CommandChar()
	if !strings.HasPrefix(msg.Content.Text, cmdChar) {
		return Command{}, false
	}

	body := msg.Content.Text[len(cmdChar):]
	return Command{
		Sender:  msg.Author,
		Channel: msg.Channel,
		Params:  strings.Split(body, " "),
	}, true
}

// Name returns the command's name, the first param.
func (c Command) Name() string {
	if len(c.Params) == 0 {
		return ""
	}
	return c.Params[0]
}
