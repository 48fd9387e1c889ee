package eightball

import (
	"testing"
	"time"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
	"github.com/aarondl/multiq/modules"
)

type sentMsg struct {
	source chat.SourceID
	msg    chat.Message
}

type fakeCore struct {
	sent []sentMsg
}

func (f *fakeCore) Send(source chat.SourceID, msg chat.Message) error {
	f.sent = append(f.sent, sentMsg{source, msg})
	return nil
}
func (f *fakeCore) Nick(chat.SourceID) string           { return "multiq" }
func (f *fakeCore) ScheduleTimer(string, time.Duration) {}

func setupConfig(t *testing.T) {
	t.Helper()
	c := config.New().FromString(`command_char = "."`)
	if errs := c.Errors(); len(errs) != 0 {
		t.Fatal("unexpected errors:", errs)
	}
	config.SetGlobal(c)
}

func question(text string) chat.SourceEvent {
	return chat.SourceEvent{
		Source: "irc",
		Event: chat.ReceivedMessage(chat.Message{
			Author:  "alice",
			Channel: chat.ChannelNamed("#room"),
			Content: chat.Text(text),
		}),
	}
}

func newTestModule(t *testing.T) *Eightball {
	t.Helper()
	mod, err := New("8ball", map[string]interface{}{
		"responses": []interface{}{"Definitely, %s."},
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	return mod.(*Eightball)
}

func TestEightballAnswers(t *testing.T) {
	setupConfig(t)
	core := &fakeCore{}
	mod := newTestModule(t)

	h := mod.HandleEvent(core, question(".eightball will this work?"))
	if h != modules.Resume {
		t.Error("eightball should resume")
	}
	if len(core.sent) != 1 {
		t.Fatal("expected one reply, got:", core.sent)
	}
	reply := core.sent[0]
	if reply.source != "irc" {
		t.Error("wrong source:", reply.source)
	}
	if !reply.msg.Channel.Equal(chat.ChannelNamed("#room")) {
		t.Error("wrong channel:", reply.msg.Channel)
	}
	if reply.msg.Content.Text != "Definitely, alice." {
		t.Error("wrong reply:", reply.msg.Content.Text)
	}
}

func TestEightballIgnores(t *testing.T) {
	setupConfig(t)
	core := &fakeCore{}
	mod := newTestModule(t)

	// No question after the command name.
	mod.HandleEvent(core, question(".eightball"))
	// Not a command at all.
	mod.HandleEvent(core, question("eightball will it?"))
	// Some other command.
	mod.HandleEvent(core, question(".chat"))

	if len(core.sent) != 0 {
		t.Error("expected no replies, got:", core.sent)
	}
}

func TestEightballDisabled(t *testing.T) {
	setupConfig(t)
	core := &fakeCore{}
	mod, err := New("8ball", map[string]interface{}{
		"enabled":   false,
		"responses": []interface{}{"yes"},
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	mod.HandleEvent(core, question(".eightball well?"))
	if len(core.sent) != 0 {
		t.Error("disabled module should stay quiet")
	}
}

func TestEightballConfigErrors(t *testing.T) {
	if _, err := New("8ball", nil); err == nil {
		t.Error("expected missing config to fail")
	}
	if _, err := New("8ball", map[string]interface{}{}); err == nil {
		t.Error("expected missing responses to fail")
	}
}
