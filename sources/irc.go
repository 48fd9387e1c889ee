package sources

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/girc"
	"github.com/pkg/errors"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
)

// defaultConnectTimeout bounds how long Connect waits for registration to
// complete once the session is up.
const defaultConnectTimeout = 30 * time.Second

// ircConfig is the decoded opaque configuration of an IRC source.
type ircConfig struct {
	server       string
	port         int
	nickname     string
	tls          bool
	channels     []string
	nickservPass string
}

// IRCSource connects to an IRC network through a girc client and translates
// the protocol stream into normalized events.
type IRCSource struct {
	id             chat.SourceID
	sink           chan<- chat.SourceEvent
	conf           ircConfig
	connectTimeout time.Duration

	protect sync.Mutex
	client  *girc.Client
}

// NewIRC builds an IRC source. A missing or ill-typed config is a
// construction error.
func NewIRC(id chat.SourceID, sink chan<- chat.SourceEvent,
	conf config.Map) (EventSource, error) {

	if conf == nil {
		return nil, fmt.Errorf("sources(%s): irc source requires a config", id)
	}
	server, ok := conf.Str("server")
	if !ok {
		return nil, fmt.Errorf("sources(%s): irc config requires a server", id)
	}
	nickname, ok := conf.Str("nickname")
	if !ok {
		return nil, fmt.Errorf("sources(%s): irc config requires a nickname", id)
	}

	channels, _ := conf.StrList("channels")

	timeout := defaultConnectTimeout
	if secs, ok := conf.Int("connect_timeout"); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	return &IRCSource{
		id:             id,
		sink:           sink,
		connectTimeout: timeout,
		conf: ircConfig{
			server:       server,
			port:         int(conf.IntOr("port", 6667)),
			nickname:     nickname,
			tls:          conf.BoolOr("tls", false),
			channels:     channels,
			nickservPass: conf.StrOr("nickserv_password", ""),
		},
	}, nil
}

// Connect establishes the session, identifies, joins the configured
// channels and leaves a worker consuming the inbound protocol stream. A
// second call discards the previous session.
func (s *IRCSource) Connect() error {
	s.protect.Lock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}

	client := girc.New(girc.Config{
		Server: s.conf.server,
		Port:   s.conf.port,
		Nick:   s.conf.nickname,
		User:   s.conf.nickname,
		Name:   s.conf.nickname,
		SSL:    s.conf.tls,
	})

	ready := make(chan struct{}, 1)
	client.Handlers.Add(girc.CONNECTED, func(c *girc.Client, _ girc.Event) {
		if len(s.conf.nickservPass) > 0 {
			c.Cmd.Message("NickServ", "IDENTIFY "+s.conf.nickservPass)
		}
		if len(s.conf.channels) > 0 {
			c.Cmd.Join(s.conf.channels...)
		}
		select {
		case ready <- struct{}{}:
		default:
		}
	})
	client.Handlers.Add(girc.ALL_EVENTS, func(_ *girc.Client, e girc.Event) {
		for _, event := range translateIRC(e) {
			s.sink <- chat.SourceEvent{Source: s.id, Event: event}
		}
	})

	s.client = client
	s.protect.Unlock()

	// The girc client owns the reading loop; this goroutine is the source
	// worker and lives until the connection dies.
	errc := make(chan error, 1)
	go func() {
		errc <- client.Connect()
	}()

	timeout := time.NewTimer(s.connectTimeout)
	defer timeout.Stop()

	select {
	case err := <-errc:
		if err == nil {
			err = errors.New("connection closed during connect")
		}
		return ConnectionError{
			Source: s.id,
			Err:    errors.Wrap(err, "girc"),
		}
	case <-ready:
		return nil
	case <-timeout.C:
		// A server that accepts the session but never registers us would
		// otherwise hang startup forever.
		client.Close()
		return ConnectionError{
			Source: s.id,
			Err: errors.Errorf("no registration within %v",
				s.connectTimeout),
		}
	}
}

// Join joins an IRC channel.
func (s *IRCSource) Join(channel string) error {
	s.protect.Lock()
	client := s.client
	s.protect.Unlock()

	if client == nil {
		return DisconnectedError{Source: s.id}
	}
	client.Cmd.Join(channel)
	return nil
}

// Send emits a PRIVMSG or ACTION to a channel or user. Group and none
// channels and image content are unsupported on IRC.
func (s *IRCSource) Send(dst chat.Channel, content chat.MessageContent) error {
	s.protect.Lock()
	client := s.client
	s.protect.Unlock()

	if client == nil {
		return DisconnectedError{Source: s.id}
	}

	var target string
	switch dst.Kind {
	case chat.ChanChannel, chat.ChanUser:
		target = dst.Name
	default:
		return InvalidChannelError{Source: s.id, Channel: dst}
	}

	switch content.Kind {
	case chat.ContentText:
		client.Cmd.Message(target, content.Text)
	case chat.ContentMe:
		client.Cmd.Action(target, content.Text)
	default:
		return InvalidMessageError{Source: s.id, Content: content}
	}
	return nil
}

// Reconnect tears the session down and connects again.
func (s *IRCSource) Reconnect() error {
	return s.Connect()
}

// Nick returns the current nickname on the network, empty when
// disconnected.
func (s *IRCSource) Nick() string {
	s.protect.Lock()
	client := s.client
	s.protect.Unlock()

	if client == nil {
		return ""
	}
	return client.GetNick()
}

// Type returns Irc.
func (s *IRCSource) Type() SourceType { return Irc }

// translateIRC maps one inbound protocol message to zero or more events.
// It is a pure function of the girc event.
func translateIRC(e girc.Event) []chat.Event {
	var sender string
	if e.Source != nil {
		sender = e.Source.Name
	}

	switch e.Command {
	case girc.PING, girc.PONG:
		return nil

	case girc.CONNECTED:
		return []chat.Event{chat.Connected()}

	case girc.DISCONNECTED, girc.CLOSED:
		return []chat.Event{chat.Disconnected()}

	case girc.PRIVMSG:
		if len(e.Params) < 2 {
			return nil
		}
		target := e.Params[0]
		channel := chat.UserChannel(target)
		if strings.HasPrefix(target, "#") {
			channel = chat.ChannelNamed(target)
		}
		return []chat.Event{chat.ReceivedMessage(chat.Message{
			Author:  sender,
			Channel: channel,
			Content: chat.Text(e.Last()),
		})}

	case girc.NICK:
		return []chat.Event{chat.NickChange(sender, e.Last())}

	case girc.JOIN:
		return []chat.Event{chat.UserOnline(sender)}

	case girc.PART:
		var reason string
		if len(e.Params) >= 2 {
			reason = e.Last()
		}
		return []chat.Event{chat.UserOffline(sender, reason)}

	case girc.QUIT:
		return []chat.Event{chat.UserOffline(sender, e.Last())}

	case girc.RPL_NAMREPLY:
		var events []chat.Event
		for _, nick := range strings.Fields(e.Last()) {
			events = append(events, chat.UserOnline(nick))
		}
		return events

	default:
		// The client's own lifecycle notices are not network traffic.
		if strings.HasPrefix(e.Command, "CLIENT_") {
			return nil
		}
		return []chat.Event{chat.Other(e.String())}
	}
}
