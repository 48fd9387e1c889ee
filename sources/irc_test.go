package sources

import (
	"net"
	"testing"
	"time"

	"github.com/lrstanley/girc"

	"github.com/aarondl/multiq/chat"
)

func translateRaw(t *testing.T, raw string) []chat.Event {
	t.Helper()
	ev := girc.ParseEvent(raw)
	if ev == nil {
		t.Fatalf("failed to parse: %q", raw)
	}
	return translateIRC(*ev)
}

func TestTranslatePrivmsgChannel(t *testing.T) {
	events := translateRaw(t, ":bob!user@host PRIVMSG #room :hi there")
	if len(events) != 1 {
		t.Fatal("expected one event, got:", events)
	}
	ev := events[0]
	if ev.Kind != chat.EventReceivedMessage {
		t.Fatal("wrong kind:", ev.Kind)
	}
	if ev.Message.Author != "bob" {
		t.Error("wrong author:", ev.Message.Author)
	}
	if !ev.Message.Channel.Equal(chat.ChannelNamed("#room")) {
		t.Error("wrong channel:", ev.Message.Channel)
	}
	if ev.Message.Content.Kind != chat.ContentText ||
		ev.Message.Content.Text != "hi there" {
		t.Error("wrong content:", ev.Message.Content)
	}
}

func TestTranslatePrivmsgUser(t *testing.T) {
	events := translateRaw(t, ":bob!user@host PRIVMSG alice :psst")
	if len(events) != 1 {
		t.Fatal("expected one event, got:", events)
	}
	if !events[0].Message.Channel.Equal(chat.UserChannel("alice")) {
		t.Error("wrong channel:", events[0].Message.Channel)
	}
}

func TestTranslatePingPongSuppressed(t *testing.T) {
	if events := translateRaw(t, "PING :irc.example.org"); len(events) != 0 {
		t.Error("ping should be suppressed, got:", events)
	}
	if events := translateRaw(t, "PONG :irc.example.org"); len(events) != 0 {
		t.Error("pong should be suppressed, got:", events)
	}
}

func TestTranslateNick(t *testing.T) {
	events := translateRaw(t, ":bob!user@host NICK :robert")
	if len(events) != 1 || events[0].Kind != chat.EventNickChange {
		t.Fatal("expected one nick change, got:", events)
	}
	if events[0].User != "bob" || events[0].NewNick != "robert" {
		t.Error("wrong nick change:", events[0])
	}
}

func TestTranslateJoinPartQuit(t *testing.T) {
	events := translateRaw(t, ":bob!user@host JOIN #room")
	if len(events) != 1 || events[0].Kind != chat.EventUserOnline ||
		events[0].User != "bob" {
		t.Error("wrong join translation:", events)
	}

	events = translateRaw(t, ":bob!user@host PART #room :gotta go")
	if len(events) != 1 || events[0].Kind != chat.EventUserOffline {
		t.Fatal("wrong part translation:", events)
	}
	if events[0].User != "bob" || events[0].Reason != "gotta go" {
		t.Error("wrong part details:", events[0])
	}

	events = translateRaw(t, ":bob!user@host QUIT :bye")
	if len(events) != 1 || events[0].Kind != chat.EventUserOffline ||
		events[0].Reason != "bye" {
		t.Error("wrong quit translation:", events)
	}
}

func TestTranslateNamreply(t *testing.T) {
	events := translateRaw(t,
		":irc.example.org 353 me = #room :alice bob @carol")
	if len(events) != 3 {
		t.Fatal("expected three events, got:", events)
	}
	names := []string{"alice", "bob", "@carol"}
	for i, ev := range events {
		if ev.Kind != chat.EventUserOnline {
			t.Error("wrong kind:", ev.Kind)
		}
		if ev.User != names[i] {
			t.Errorf("wrong user %d: %v", i, ev.User)
		}
	}
}

func TestTranslateServerSenderHasNoNick(t *testing.T) {
	events := translateRaw(t, ":irc.example.org PRIVMSG #room :notice")
	if len(events) != 1 {
		t.Fatal("expected one event")
	}
	// A server prefix has no '!', the whole name is kept.
	if events[0].Message.Author != "irc.example.org" {
		t.Error("wrong author:", events[0].Message.Author)
	}
}

func TestTranslateUnknownBecomesOther(t *testing.T) {
	events := translateRaw(t, ":irc.example.org 005 me CHANTYPES=# :are supported")
	if len(events) != 1 || events[0].Kind != chat.EventOther {
		t.Error("expected an other event, got:", events)
	}
	if len(events[0].Text) == 0 {
		t.Error("other payload should carry the raw message")
	}
}

func TestIRCSendDisconnected(t *testing.T) {
	sink := make(chan chat.SourceEvent, 1)
	src, err := NewIRC("irc1", sink, map[string]interface{}{
		"server":   "irc.example.org",
		"nickname": "multiq",
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	err = src.Send(chat.ChannelNamed("#room"), chat.Text("hi"))
	if _, ok := err.(DisconnectedError); !ok {
		t.Error("expected DisconnectedError, got:", err)
	}
	if src.Nick() != "" {
		t.Error("disconnected nick should be empty")
	}
}

func TestIRCSendInvalidVariants(t *testing.T) {
	sink := make(chan chat.SourceEvent, 1)
	src, err := NewIRC("irc1", sink, map[string]interface{}{
		"server":   "irc.example.org",
		"nickname": "multiq",
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	irc := src.(*IRCSource)
	irc.client = girc.New(girc.Config{
		Server: "irc.example.org", Port: 6667,
		Nick: "multiq", User: "multiq", Name: "multiq",
	})

	err = irc.Send(chat.GroupChannel("a", "b"), chat.Text("hi"))
	if _, ok := err.(InvalidChannelError); !ok {
		t.Error("expected InvalidChannelError, got:", err)
	}

	err = irc.Send(chat.NoChannel(), chat.Text("hi"))
	if _, ok := err.(InvalidChannelError); !ok {
		t.Error("expected InvalidChannelError, got:", err)
	}

	err = irc.Send(chat.ChannelNamed("#room"), chat.Image())
	if _, ok := err.(InvalidMessageError); !ok {
		t.Error("expected InvalidMessageError, got:", err)
	}
}

func TestIRCConnectTimesOut(t *testing.T) {
	// A listener that accepts the session but never completes registration.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	defer listener.Close()
	go func() {
		for {
			if _, err := listener.Accept(); err != nil {
				return
			}
		}
	}()

	sink := make(chan chat.SourceEvent, 8)
	src, err := NewIRC("irc1", sink, map[string]interface{}{
		"server":   "127.0.0.1",
		"port":     listener.Addr().(*net.TCPAddr).Port,
		"nickname": "multiq",
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	irc := src.(*IRCSource)
	irc.connectTimeout = 50 * time.Millisecond

	err = irc.Connect()
	if _, ok := err.(ConnectionError); !ok {
		t.Fatal("expected ConnectionError, got:", err)
	}
}

func TestIRCConfigErrors(t *testing.T) {
	sink := make(chan chat.SourceEvent, 1)
	if _, err := NewIRC("irc1", sink, map[string]interface{}{
		"server": "irc.example.org",
	}); err == nil {
		t.Error("expected missing nickname to fail")
	}
	if _, err := NewIRC("irc1", sink, map[string]interface{}{
		"nickname": "multiq",
	}); err == nil {
		t.Error("expected missing server to fail")
	}
}
