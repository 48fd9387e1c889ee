package pipe

import (
	"testing"
	"time"

	"github.com/aarondl/multiq/chat"
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

func newTestPipe(t *testing.T) modules.Module {
	t.Helper()
	mod, err := New("bridge", map[string]interface{}{
		"endpoints": []interface{}{
			map[string]interface{}{"source": "irc", "channel": "#room"},
			map[string]interface{}{"source": "slack", "channel": "general"},
			map[string]interface{}{"source": "discord", "channel": "lobby"},
		},
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	return mod
}

func roomMessage(source chat.SourceID, channel, author,
	text string) chat.SourceEvent {

	return chat.SourceEvent{
		Source: source,
		Event: chat.ReceivedMessage(chat.Message{
			Author:  author,
			Channel: chat.ChannelNamed(channel),
			Content: chat.Text(text),
		}),
	}
}

func TestPipeForwards(t *testing.T) {
	core := &fakeCore{}
	mod := newTestPipe(t)

	h := mod.HandleEvent(core, roomMessage("irc", "#room", "alice", "hi all"))
	if h != modules.Resume {
		t.Error("pipe should resume")
	}
	if len(core.sent) != 2 {
		t.Fatal("expected two forwards, got:", core.sent)
	}
	for _, fwd := range core.sent {
		if fwd.source == "irc" {
			t.Error("message echoed back to its origin")
		}
		if fwd.msg.Content.Text != "[alice]: hi all" {
			t.Error("wrong forwarded text:", fwd.msg.Content.Text)
		}
	}
	if core.sent[0].source != "slack" || core.sent[1].source != "discord" {
		t.Error("wrong destinations:", core.sent)
	}
}

func TestPipeIgnoresOtherChannels(t *testing.T) {
	core := &fakeCore{}
	mod := newTestPipe(t)

	mod.HandleEvent(core, roomMessage("irc", "#elsewhere", "alice", "hi"))
	if len(core.sent) != 0 {
		t.Error("non-endpoint channel should be ignored:", core.sent)
	}

	mod.HandleEvent(core, chat.SourceEvent{
		Source: "irc",
		Event: chat.ReceivedMessage(chat.Message{
			Author:  "alice",
			Channel: chat.UserChannel("multiq"),
			Content: chat.Text("private"),
		}),
	})
	if len(core.sent) != 0 {
		t.Error("private messages should not be piped:", core.sent)
	}
}

func TestPipeIgnoresNonText(t *testing.T) {
	core := &fakeCore{}
	mod := newTestPipe(t)

	mod.HandleEvent(core, chat.SourceEvent{
		Source: "irc",
		Event: chat.ReceivedMessage(chat.Message{
			Author:  "alice",
			Channel: chat.ChannelNamed("#room"),
			Content: chat.Me("waves"),
		}),
	})
	if len(core.sent) != 0 {
		t.Error("me-messages should not be piped:", core.sent)
	}
}

func TestPipeConfigErrors(t *testing.T) {
	if _, err := New("bridge", nil); err == nil {
		t.Error("expected missing config to fail")
	}
	if _, err := New("bridge", map[string]interface{}{
		"endpoints": []interface{}{
			map[string]interface{}{"source": "irc", "channel": "#room"},
		},
	}); err == nil {
		t.Error("expected a single endpoint to fail")
	}
	if _, err := New("bridge", map[string]interface{}{
		"endpoints": []interface{}{
			map[string]interface{}{"source": "irc"},
			map[string]interface{}{"source": "slack", "channel": "general"},
		},
	}); err == nil {
		t.Error("expected a channel-less endpoint to fail")
	}
}
