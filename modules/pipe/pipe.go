// Package pipe relays messages between channels on different sources.
package pipe

import (
	"fmt"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
	"github.com/aarondl/multiq/modules"
)

func init() {
	modules.Register("pipe", New)
}

type endpoint struct {
	source  chat.SourceID
	channel string
}

// Pipe forwards text messages between its configured endpoints. A message
// arriving on one endpoint goes to every other endpoint, prefixed with the
// original author, and is never echoed back to where it came from.
type Pipe struct {
	id        string
	endpoints []endpoint
}

// New builds a pipe module from a list of {source, channel} endpoints.
func New(id string, conf config.Map) (modules.Module, error) {
	if conf == nil {
		return nil, fmt.Errorf("pipe(%s): module requires a config", id)
	}
	entries, ok := conf.MapList("endpoints")
	if !ok || len(entries) < 2 {
		return nil, fmt.Errorf("pipe(%s): config requires at least two endpoints", id)
	}

	endpoints := make([]endpoint, 0, len(entries))
	for i, entry := range entries {
		source, ok := entry.Str("source")
		if !ok {
			return nil, fmt.Errorf("pipe(%s): endpoint %d has no source", id, i)
		}
		channel, ok := entry.Str("channel")
		if !ok {
			return nil, fmt.Errorf("pipe(%s): endpoint %d has no channel", id, i)
		}
		endpoints = append(endpoints, endpoint{
			source:  chat.SourceID(source),
			channel: channel,
		})
	}

	return &Pipe{id: id, endpoints: endpoints}, nil
}

// HandleEvent forwards a text message from one endpoint to all the others.
func (p *Pipe) HandleEvent(core modules.CoreAPI,
	event chat.SourceEvent) modules.Handling {

	if event.Event.Kind != chat.EventReceivedMessage {
		return modules.Resume
	}
	msg := event.Event.Message
	if msg.Content.Kind != chat.ContentText {
		return modules.Resume
	}

	if !p.isEndpoint(event.Source, msg.Channel) {
		return modules.Resume
	}

	forwarded := fmt.Sprintf("[%s]: %s", msg.Author, msg.Content.Text)
	for _, ep := range p.endpoints {
		channel := chat.ChannelNamed(ep.channel)
		if ep.source == event.Source && channel.Equal(msg.Channel) {
			continue
		}
		core.Send(ep.source, chat.Message{
			Channel: channel,
			Content: chat.Text(forwarded),
		})
	}
	return modules.Resume
}

func (p *Pipe) isEndpoint(source chat.SourceID, channel chat.Channel) bool {
	for _, ep := range p.endpoints {
		if ep.source == source && channel.Equal(chat.ChannelNamed(ep.channel)) {
			return true
		}
	}
	return false
}
