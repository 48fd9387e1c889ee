package patterns

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

func message(text string) chat.SourceEvent {
	return chat.SourceEvent{
		Source: "irc",
		Event: chat.ReceivedMessage(chat.Message{
			Author:  "alice",
			Channel: chat.ChannelNamed("#room"),
			Content: chat.Text(text),
		}),
	}
}

func newTestModule(t *testing.T) modules.Module {
	t.Helper()
	mod, err := New("pat", map[string]interface{}{
		"patterns": []interface{}{
			map[string]interface{}{
				"pattern":  "(?i)hello",
				"response": "hi there",
			},
			map[string]interface{}{
				"pattern":  "bye",
				"response": "see you",
			},
		},
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	return mod
}

func TestPatternsMatch(t *testing.T) {
	setupConfig(t)
	core := &fakeCore{}
	mod := newTestModule(t)

	h := mod.HandleEvent(core, message("well HELLO everyone"))
	if h != modules.Resume {
		t.Error("patterns should resume")
	}
	if len(core.sent) != 1 {
		t.Fatal("expected one reply, got:", core.sent)
	}
	if core.sent[0].msg.Content.Text != "hi there" {
		t.Error("wrong reply:", core.sent[0].msg.Content.Text)
	}
}

func TestPatternsMultipleMatches(t *testing.T) {
	setupConfig(t)
	core := &fakeCore{}
	mod := newTestModule(t)

	mod.HandleEvent(core, message("hello and bye"))
	if len(core.sent) != 2 {
		t.Fatal("expected two replies, got:", core.sent)
	}
}

func TestPatternsIgnoreCommands(t *testing.T) {
	setupConfig(t)
	core := &fakeCore{}
	mod := newTestModule(t)

	mod.HandleEvent(core, message(".hello"))
	if len(core.sent) != 0 {
		t.Error("commands should not trigger patterns")
	}
}

func TestPatternsNoMatch(t *testing.T) {
	setupConfig(t)
	core := &fakeCore{}
	mod := newTestModule(t)

	mod.HandleEvent(core, message("nothing of note"))
	if len(core.sent) != 0 {
		t.Error("expected no replies")
	}
}

func TestPatternsBadRegexFails(t *testing.T) {
	_, err := New("pat", map[string]interface{}{
		"patterns": []interface{}{
			map[string]interface{}{
				"pattern":  "(unclosed",
				"response": "never",
			},
		},
	})
	if err == nil {
		t.Error("expected an invalid regex to fail construction")
	}
}

func TestPatternsConfigErrors(t *testing.T) {
	if _, err := New("pat", nil); err == nil {
		t.Error("expected missing config to fail")
	}
	if _, err := New("pat", map[string]interface{}{
		"patterns": []interface{}{
			map[string]interface{}{"pattern": "x"},
		},
	}); err == nil {
		t.Error("expected missing response to fail")
	}
}
