package sources

import (
	"fmt"
	"sync"

	"github.com/nlopes/slack"
	"github.com/pkg/errors"

	"github.com/aarondl/multiq/chat"
	"github.com/aarondl/multiq/config"
)

// SlackSource connects to Slack over the RTM api and translates its event
// stream into normalized events. Users and channels are resolved through
// the roster snapshot taken at login.
type SlackSource struct {
	id    chat.SourceID
	sink  chan<- chat.SourceEvent
	token string

	protect sync.Mutex
	rtm     *slack.RTM
	roster  *slackRoster
}

// NewSlack builds a Slack source. The config must carry a token.
func NewSlack(id chat.SourceID, sink chan<- chat.SourceEvent,
	conf config.Map) (EventSource, error) {

	if conf == nil {
		return nil, fmt.Errorf("sources(%s): slack source requires a config", id)
	}
	token, ok := conf.Str("token")
	if !ok {
		return nil, fmt.Errorf("sources(%s): slack config requires a token", id)
	}

	return &SlackSource{id: id, sink: sink, token: token}, nil
}

// Connect performs the RTM login, loads the roster snapshot through the Web
// API and spawns the event loop worker. A second call discards the previous
// session.
func (s *SlackSource) Connect() error {
	api := slack.New(s.token)
	auth, err := api.AuthTest()
	if err != nil {
		return ConnectionError{
			Source: s.id,
			Err:    errors.Wrap(err, "slack auth"),
		}
	}

	roster, err := loadSlackRoster(api, auth.User)
	if err != nil {
		return ConnectionError{Source: s.id, Err: err}
	}

	rtm := api.NewRTM()

	s.protect.Lock()
	if s.rtm != nil {
		s.rtm.Disconnect()
	}
	s.rtm = rtm
	s.roster = roster
	s.protect.Unlock()

	go rtm.ManageConnection()
	go s.eventLoop(rtm)
	return nil
}

// eventLoop is the worker draining the RTM event stream.
func (s *SlackSource) eventLoop(rtm *slack.RTM) {
	s.protect.Lock()
	roster := s.roster
	s.protect.Unlock()

	for msg := range rtm.IncomingEvents {
		for _, event := range translateSlack(msg, roster) {
			s.sink <- chat.SourceEvent{Source: s.id, Event: event}
		}

		if ev, ok := msg.Data.(*slack.DisconnectedEvent); ok && ev.Intentional {
			return
		}
		if _, ok := msg.Data.(*slack.InvalidAuthEvent); ok {
			return
		}
	}
}

// Join is a no-op; channel membership is managed on the Slack side.
func (s *SlackSource) Join(string) error { return nil }

// Send resolves the destination to a Slack id through the roster snapshot
// and emits an RTM message.
func (s *SlackSource) Send(dst chat.Channel, content chat.MessageContent) error {
	s.protect.Lock()
	rtm, roster := s.rtm, s.roster
	s.protect.Unlock()

	if rtm == nil || roster == nil {
		return DisconnectedError{Source: s.id}
	}

	var channelID string
	var ok bool
	switch dst.Kind {
	case chat.ChanChannel:
		channelID, ok = roster.channelID(dst.Name)
	case chat.ChanUser:
		channelID, ok = roster.imChannelFor(dst.Name)
	}
	if !ok {
		return InvalidChannelError{Source: s.id, Channel: dst}
	}

	var text string
	switch content.Kind {
	case chat.ContentText:
		text = content.Text
	case chat.ContentMe:
		text = "_" + content.Text + "_"
	default:
		return InvalidMessageError{Source: s.id, Content: content}
	}

	rtm.SendMessage(rtm.NewOutgoingMessage(text, channelID))
	return nil
}

// Reconnect tears the session down and connects again.
func (s *SlackSource) Reconnect() error {
	return s.Connect()
}

// Nick returns the bot's user name from the login snapshot, empty before
// the first connect completes.
func (s *SlackSource) Nick() string {
	s.protect.Lock()
	defer s.protect.Unlock()

	if s.roster == nil {
		return ""
	}
	return s.roster.self
}

// Type returns Slack.
func (s *SlackSource) Type() SourceType { return Slack }

// loadSlackRoster pulls users, channels and open IMs from the Web API and
// builds the snapshot the source resolves names against.
func loadSlackRoster(api *slack.Client, self string) (*slackRoster, error) {
	users, err := api.GetUsers()
	if err != nil {
		return nil, errors.Wrap(err, "slack users")
	}
	channels, err := api.GetChannels(true)
	if err != nil {
		return nil, errors.Wrap(err, "slack channels")
	}
	ims, err := api.GetIMChannels()
	if err != nil {
		return nil, errors.Wrap(err, "slack ims")
	}
	return newSlackRoster(self, users, channels, ims), nil
}

// slackRoster is the snapshot of users, channels and open IMs taken at
// login. It never mutates after construction.
type slackRoster struct {
	self      string
	userNames map[string]string // user id -> name
	userIDs   map[string]string // name -> user id
	chanNames map[string]string // channel id -> name
	chanIDs   map[string]string // name -> channel id
	imUsers   map[string]string // im channel id -> user id
	imByUser  map[string]string // user id -> im channel id
}

func newSlackRoster(self string, users []slack.User, channels []slack.Channel,
	ims []slack.IM) *slackRoster {

	r := &slackRoster{
		self:      self,
		userNames: make(map[string]string),
		userIDs:   make(map[string]string),
		chanNames: make(map[string]string),
		chanIDs:   make(map[string]string),
		imUsers:   make(map[string]string),
		imByUser:  make(map[string]string),
	}
	for _, user := range users {
		r.userNames[user.ID] = user.Name
		r.userIDs[user.Name] = user.ID
	}
	for _, ch := range channels {
		r.chanNames[ch.ID] = ch.Name
		r.chanIDs[ch.Name] = ch.ID
	}
	for _, im := range ims {
		r.imUsers[im.ID] = im.User
		r.imByUser[im.User] = im.ID
	}
	return r
}

// userName resolves a user id, falling back to the raw id.
func (r *slackRoster) userName(id string) string {
	if name, ok := r.userNames[id]; ok {
		return name
	}
	return id
}

// channelID resolves a channel name to its id.
func (r *slackRoster) channelID(name string) (string, bool) {
	id, ok := r.chanIDs[name]
	return id, ok
}

// imChannelFor resolves a user name to the open IM channel with them.
func (r *slackRoster) imChannelFor(name string) (string, bool) {
	id, ok := r.userIDs[name]
	if !ok {
		return "", false
	}
	im, ok := r.imByUser[id]
	return im, ok
}

// messageChannel resolves an inbound message's channel id to a chat
// channel, falling back to the raw id when the lookup fails.
func (r *slackRoster) messageChannel(id string) chat.Channel {
	if name, ok := r.chanNames[id]; ok {
		return chat.ChannelNamed(name)
	}
	if user, ok := r.imUsers[id]; ok {
		return chat.UserChannel(r.userName(user))
	}
	return chat.ChannelNamed(id)
}

// translateSlack maps one RTM event to zero or more normalized events.
// roster may be nil when no snapshot is available; lookups then fall back
// to the raw ids.
func translateSlack(msg slack.RTMEvent, roster *slackRoster) []chat.Event {
	switch ev := msg.Data.(type) {
	case *slack.ConnectedEvent:
		return []chat.Event{chat.Connected()}

	case *slack.DisconnectedEvent:
		return []chat.Event{chat.Disconnected()}

	case *slack.InvalidAuthEvent:
		return []chat.Event{chat.Disconnected()}

	case *slack.ReconnectUrlEvent, *slack.UserTypingEvent,
		*slack.LatencyReport, *slack.HelloEvent:
		return nil

	case *slack.PresenceChangeEvent:
		name := ev.User
		if roster != nil {
			name = roster.userName(ev.User)
		}
		switch ev.Presence {
		case "active":
			return []chat.Event{chat.UserOnline(name)}
		case "away":
			return []chat.Event{chat.UserOffline(name, "")}
		}
		return nil

	case *slack.MessageEvent:
		if len(ev.SubType) > 0 {
			return []chat.Event{chat.Other(fmt.Sprintf("%+v", ev.Msg))}
		}
		author := ev.User
		channel := chat.ChannelNamed(ev.Channel)
		if roster != nil {
			author = roster.userName(ev.User)
			channel = roster.messageChannel(ev.Channel)
		}
		return []chat.Event{chat.ReceivedMessage(chat.Message{
			Author:  author,
			Channel: channel,
			Content: chat.Text(ev.Text),
		})}

	default:
		return []chat.Event{chat.Other(fmt.Sprintf("%+v", msg.Data))}
	}
}
