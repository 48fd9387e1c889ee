// Package eightball answers questions with a random canned response.
package eightball

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
	"github.com/aarondl/multiq/modules"
)

func init() {
	modules.Register("eightball", New)
}

// Eightball replies to the eightball command with one of its configured
// responses. Any %s in a response is replaced with the asker's name.
type Eightball struct {
	id        string
	enabled   bool
	responses []string
	rng       *rand.Rand
}

// New builds an eightball module. The config must carry a non-empty
// responses list.
func New(id string, conf config.Map) (modules.Module, error) {
	if conf == nil {
		return nil, fmt.Errorf("eightball(%s): module requires a config", id)
	}
	responses, ok := conf.StrList("responses")
	if !ok || len(responses) == 0 {
		return nil, fmt.Errorf("eightball(%s): config requires responses", id)
	}

	return &Eightball{
		id:        id,
		enabled:   conf.BoolOr("enabled", true),
		responses: responses,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// HandleEvent answers the eightball command when it carries a question.
func (e *Eightball) HandleEvent(core modules.CoreAPI,
	event chat.SourceEvent) modules.Handling {

	if !e.enabled || event.Event.Kind != chat.EventReceivedMessage {
		return modules.Resume
	}

	msg := event.Event.Message
	cmd, ok := modules.FromMessage(msg)
	if !ok || cmd.Name() != "eightball" || len(cmd.Params) < 2 {
		return modules.Resume
	}

	response := e.responses[e.rng.Intn(len(e.responses))]
	response = strings.Replace(response, "%s", msg.Author, -1)
	core.Send(event.Source, chat.Message{
		Channel: msg.Channel,
		Content: chat.Text(response),
	})
	return modules.Resume
}
