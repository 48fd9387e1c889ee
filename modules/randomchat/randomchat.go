// Package randomchat learns a markov model from everything it hears and
// occasionally talks back.
package randomchat

import (
	"fmt"
	"math/rand"
	"time"

	"gopkg.in/inconshreveable/log15.v2"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
	"github.com/aarondl/multiq/modules"
)

func init() {
	modules.Register("randomchat", New)
}

const (
	defaultDictionaryPath = "dictionary.db"
	saveInterval          = 10 * time.Minute
)

// RandomChat learns trigrams from every message that is not its own and
// replies with a generated sentence at a configured probability. The
// dictionary is saved on a self-scheduled timer keyed by the module id.
type RandomChat struct {
	id          string
	enabled     bool
	probability int
	dict        *Dictionary
	store       *Store
	rng         *rand.Rand
	logger      log15.Logger

	timerStarted bool
}

// New builds a randomchat module and loads its dictionary from disk.
func New(id string, conf config.Map) (modules.Module, error) {
	if conf == nil {
		return nil, fmt.Errorf("randomchat(%s): module requires a config", id)
	}
	probability, ok := conf.Int("probability")
	if !ok || probability < 0 || probability > 100 {
		return nil, fmt.Errorf(
			"randomchat(%s): config requires a probability between 0 and 100", id)
	}

	store, err := OpenStore(conf.StrOr("dictionary_path", defaultDictionaryPath))
	if err != nil {
		return nil, err
	}
	dict, err := store.LoadDictionary()
	if err != nil {
		store.Close()
		return nil, err
	}

	return &RandomChat{
		id:          id,
		enabled:     conf.BoolOr("enabled", true),
		probability: int(probability),
		dict:        dict,
		store:       store,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      log15.New("module", id),
	}, nil
}

// HandleEvent learns from messages, answers commands and saves the
// dictionary when its timer fires.
func (r *RandomChat) HandleEvent(core modules.CoreAPI,
	event chat.SourceEvent) modules.Handling {

	switch event.Event.Kind {
	case chat.EventReceivedMessage:
		msg := event.Event.Message
		if cmd, ok := modules.FromMessage(msg); ok {
			return r.handleCommand(core, event.Source, cmd)
		}
		return r.handleMessage(core, event.Source, msg)

	case chat.EventTimer:
		return r.handleTimer(core, event.Event.Text)

	default:
		return modules.Resume
	}
}

func (r *RandomChat) handleMessage(core modules.CoreAPI, source chat.SourceID,
	msg chat.Message) modules.Handling {

	if !r.enabled {
		return modules.Resume
	}

	if !r.timerStarted {
		core.ScheduleTimer(r.id, saveInterval)
		r.timerStarted = true
	}

	if core.Nick(source) != msg.Author && msg.Content.Kind == chat.ContentText {
		r.dict.LearnFromLine(msg.Content.Text)
	}

	if r.rng.Intn(100) < r.probability {
		r.reply(core, source, msg.Channel, r.dict.GenerateSentence(r.rng))
	}
	return modules.Resume
}

func (r *RandomChat) handleCommand(core modules.CoreAPI, source chat.SourceID,
	cmd modules.Command) modules.Handling {

	switch cmd.Name() {
	case "chat":
		r.reply(core, source, cmd.Channel, r.dict.GenerateSentence(r.rng))
		return modules.Stop

	case "random":
		if len(cmd.Params) < 2 {
			r.reply(core, source, cmd.Channel, "Not enough parameters")
			return modules.Stop
		}
		switch cmd.Params[1] {
		case "enable":
			r.setEnabled(core, source, cmd.Channel, true)
		case "disable":
			r.setEnabled(core, source, cmd.Channel, false)
		default:
			r.reply(core, source, cmd.Channel,
				"Unknown parameter value: "+cmd.Params[1])
		}
		return modules.Stop

	default:
		return modules.Resume
	}
}

func (r *RandomChat) setEnabled(core modules.CoreAPI, source chat.SourceID,
	channel chat.Channel, enabled bool) {

	r.enabled = enabled
	config.Global().SetModuleValue(r.id, "enabled", enabled)
	if enabled {
		r.reply(core, source, channel, "RandomChat enabled.")
	} else {
		r.reply(core, source, channel, "RandomChat disabled.")
	}
}

func (r *RandomChat) handleTimer(core modules.CoreAPI,
	timerID string) modules.Handling {

	if timerID != r.id {
		return modules.Resume
	}
	if err := r.store.SaveDictionary(r.dict); err != nil {
		r.logger.Error("failed to save the dictionary", "err", err)
	}
	core.ScheduleTimer(r.id, saveInterval)
	return modules.Stop
}

func (r *RandomChat) reply(core modules.CoreAPI, source chat.SourceID,
	channel chat.Channel, text string) {

	core.Send(source, chat.Message{
		Channel: channel,
		Content: chat.Text(text),
	})
}
