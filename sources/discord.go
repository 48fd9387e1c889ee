package sources

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
)

// DiscordSource connects to Discord with a bot token and translates gateway
// events into normalized events.
type DiscordSource struct {
	id    chat.SourceID
	sink  chan<- chat.SourceEvent
	token string

	protect sync.Mutex
	session *discordgo.Session
}

// NewDiscord builds a Discord source. The config must carry a token.
func NewDiscord(id chat.SourceID, sink chan<- chat.SourceEvent,
	conf config.Map) (EventSource, error) {

	if conf == nil {
		return nil, fmt.Errorf("sources(%s): discord source requires a config", id)
	}
	token, ok := conf.Str("token")
	if !ok {
		return nil, fmt.Errorf("sources(%s): discord config requires a token", id)
	}

	return &DiscordSource{id: id, sink: sink, token: token}, nil
}

// Connect authenticates with the bot token and opens the gateway
// connection. The discordgo session owns the worker; a second call discards
// the previous session.
func (s *DiscordSource) Connect() error {
	session, err := discordgo.New("Bot " + s.token)
	if err != nil {
		return ConnectionError{
			Source: s.id,
			Err:    errors.Wrap(err, "discordgo"),
		}
	}

	session.AddHandler(s.handleEvent)

	if err = session.Open(); err != nil {
		return ConnectionError{
			Source: s.id,
			Err:    errors.Wrap(err, "discordgo open"),
		}
	}

	s.protect.Lock()
	if s.session != nil {
		s.session.Close()
	}
	s.session = session
	s.protect.Unlock()
	return nil
}

// handleEvent receives every gateway event from the session.
func (s *DiscordSource) handleEvent(sess *discordgo.Session, ev interface{}) {
	switch e := ev.(type) {
	case *discordgo.Connect:
		s.emit(chat.Connected())

	case *discordgo.Disconnect:
		s.emit(chat.Disconnected())

	case *discordgo.Ready:
		// State capture; nothing to report downstream.

	case *discordgo.MessageCreate:
		if sess.State.User != nil && e.Author.ID == sess.State.User.ID {
			return
		}
		for _, event := range translateDiscordMessage(sess, e) {
			s.emit(event)
		}

	default:
		s.emit(chat.Other(fmt.Sprintf("%+v", ev)))
	}
}

func (s *DiscordSource) emit(event chat.Event) {
	s.sink <- chat.SourceEvent{Source: s.id, Event: event}
}

// Join is a no-op; membership is managed through Discord invites.
func (s *DiscordSource) Join(string) error { return nil }

// Send resolves a channel name or user name by scanning the known guilds
// and delivers the message there.
func (s *DiscordSource) Send(dst chat.Channel, content chat.MessageContent) error {
	s.protect.Lock()
	session := s.session
	s.protect.Unlock()

	if session == nil {
		return DisconnectedError{Source: s.id}
	}

	var channelID string
	switch dst.Kind {
	case chat.ChanChannel:
		channelID = findGuildChannel(session, dst.Name)
	case chat.ChanUser:
		channelID = findUserChannel(session, dst.Name)
	default:
		return InvalidChannelError{Source: s.id, Channel: dst}
	}
	if len(channelID) == 0 {
		return InvalidChannelError{Source: s.id, Channel: dst}
	}

	var text string
	switch content.Kind {
	case chat.ContentText:
		text = content.Text
	case chat.ContentMe:
		text = "*" + content.Text + "*"
	default:
		return InvalidMessageError{Source: s.id, Content: content}
	}

	if _, err := session.ChannelMessageSend(channelID, text); err != nil {
		return ConnectionError{
			Source: s.id,
			Err:    errors.Wrap(err, "discordgo send"),
		}
	}
	return nil
}

// Reconnect tears the session down and connects again.
func (s *DiscordSource) Reconnect() error {
	return s.Connect()
}

// Nick returns the bot user's name, empty until the gateway reports it.
func (s *DiscordSource) Nick() string {
	s.protect.Lock()
	session := s.session
	s.protect.Unlock()

	if session == nil || session.State.User == nil {
		return ""
	}
	return session.State.User.Username
}

// Type returns Discord.
func (s *DiscordSource) Type() SourceType { return Discord }

// translateDiscordMessage maps one inbound message to events. The author of
// a public message is the guild member's display name when resolvable; a
// private message uses the other party's name as both author and channel.
func translateDiscordMessage(sess *discordgo.Session,
	m *discordgo.MessageCreate) []chat.Event {

	ch, err := sess.State.Channel(m.ChannelID)
	if err != nil {
		if ch, err = sess.Channel(m.ChannelID); err != nil {
			return []chat.Event{chat.Other(fmt.Sprintf("%+v", m.Message))}
		}
	}

	if ch.Type == discordgo.ChannelTypeDM {
		author := m.Author.Username
		return []chat.Event{chat.ReceivedMessage(chat.Message{
			Author:  author,
			Channel: chat.UserChannel(author),
			Content: chat.Text(m.Content),
		})}
	}

	author := m.Author.Username
	if member, err := sess.State.Member(ch.GuildID, m.Author.ID); err == nil {
		if len(member.Nick) > 0 {
			author = member.Nick
		}
	}
	return []chat.Event{chat.ReceivedMessage(chat.Message{
		Author:  author,
		Channel: chat.ChannelNamed(ch.Name),
		Content: chat.Text(m.Content),
	})}
}

// findGuildChannel resolves a text channel name to its id.
func findGuildChannel(sess *discordgo.Session, name string) string {
	sess.State.RLock()
	defer sess.State.RUnlock()

	for _, guild := range sess.State.Guilds {
		for _, ch := range guild.Channels {
			if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == name {
				return ch.ID
			}
		}
	}
	return ""
}

// findUserChannel resolves a member name to a direct message channel id,
// creating the channel if needed.
func findUserChannel(sess *discordgo.Session, name string) string {
	sess.State.RLock()
	var userID string
	for _, guild := range sess.State.Guilds {
		for _, member := range guild.Members {
			if member.Nick == name || member.User.Username == name {
				userID = member.User.ID
				break
			}
		}
		if len(userID) > 0 {
			break
		}
	}
	sess.State.RUnlock()

	if len(userID) == 0 {
		return ""
	}
	ch, err := sess.UserChannelCreate(userID)
	if err != nil {
		return ""
	}
	return ch.ID
}
