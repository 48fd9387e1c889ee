package sources

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
)

// ConsoleSource reads lines from standard input and emits them as
// DirectInput events. It needs no configuration.
type ConsoleSource struct {
	id   chat.SourceID
	sink chan<- chat.SourceEvent
	in   io.Reader

	protect   sync.Mutex
	connected bool
	exhausted bool
}

// NewConsole builds a console source. The config is ignored; the console
// needs none.
func NewConsole(id chat.SourceID, sink chan<- chat.SourceEvent,
	_ config.Map) (EventSource, error) {

	return &ConsoleSource{id: id, sink: sink, in: os.Stdin}, nil
}

// Connect spawns the stdin reading worker.
func (c *ConsoleSource) Connect() error {
	c.protect.Lock()
	already := c.connected
	c.connected = true
	c.protect.Unlock()

	// Stdin cannot be reopened; a second connect keeps the running worker.
	if already {
		return nil
	}

	go c.readLines()
	return nil
}

// readLines is the worker; it emits one DirectInput per line and a
// Disconnected event when input ends.
func (c *ConsoleSource) readLines() {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		c.sink <- chat.SourceEvent{
			Source: c.id,
			Event:  chat.DirectInput(scanner.Text()),
		}
	}

	c.protect.Lock()
	c.connected = false
	c.exhausted = true
	c.protect.Unlock()

	c.sink <- chat.SourceEvent{Source: c.id, Event: chat.Disconnected()}
}

// Join is a no-op; the console has no channels.
func (c *ConsoleSource) Join(string) error { return nil }

// Send is a no-op success; console output happens through the transcript
// logger.
func (c *ConsoleSource) Send(chat.Channel, chat.MessageContent) error {
	return nil
}

// Reconnect fails with EOFError once the input has ended; stdin cannot be
// reopened.
func (c *ConsoleSource) Reconnect() error {
	c.protect.Lock()
	defer c.protect.Unlock()

	if c.exhausted {
		return EOFError{Source: c.id}
	}
	return nil
}

// Nick returns the empty string; the console has no identity.
func (c *ConsoleSource) Nick() string { return "" }

// Type returns Console.
func (c *ConsoleSource) Type() SourceType { return Console }
