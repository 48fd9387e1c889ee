/*
Package chat defines the types used by most other packages in the multiq
system: source identifiers, channels, message content and the normalized
events that flow from the sources into the core.
*/
package chat

import (
	"fmt"
	"strings"
)

// SourceID identifies a configured event source. The value CoreSource is
// reserved for events originated by the core itself (timers).
type SourceID string

// CoreSource is the reserved source id used for timer and system events.
const CoreSource SourceID = "core"

// ChannelKind discriminates the Channel variants.
type ChannelKind uint8

// The kinds of channel a message can belong to. Not every source supports
// every kind; sources reject unsupported kinds on send.
const (
	ChanNone ChannelKind = iota
	ChanChannel
	ChanUser
	ChanGroup
)

// Channel is the place a message was seen in or should be delivered to.
// It is a value type and is compared structurally.
type Channel struct {
	Kind ChannelKind
	// Name is the channel or user name for ChanChannel and ChanUser.
	Name string
	// Names is the member list for ChanGroup.
	Names []string
}

// NoChannel returns the empty channel variant.
func NoChannel() Channel { return Channel{Kind: ChanNone} }

// ChannelNamed returns a named public channel.
func ChannelNamed(name string) Channel {
	return Channel{Kind: ChanChannel, Name: name}
}

// UserChannel returns a private channel with a single user.
func UserChannel(name string) Channel {
	return Channel{Kind: ChanUser, Name: name}
}

// GroupChannel returns a private channel shared by several users.
func GroupChannel(names ...string) Channel {
	return Channel{Kind: ChanGroup, Names: names}
}

// Equal compares two channels structurally.
func (c Channel) Equal(other Channel) bool {
	if c.Kind != other.Kind || c.Name != other.Name {
		return false
	}
	if len(c.Names) != len(other.Names) {
		return false
	}
	for i := range c.Names {
		if c.Names[i] != other.Names[i] {
			return false
		}
	}
	return true
}

// String renders the channel for debug output.
func (c Channel) String() string {
	switch c.Kind {
	case ChanChannel:
		return "channel(" + c.Name + ")"
	case ChanUser:
		return "user(" + c.Name + ")"
	case ChanGroup:
		return "group(" + strings.Join(c.Names, ",") + ")"
	}
	return "none"
}

// ContentKind discriminates the MessageContent variants.
type ContentKind uint8

// The kinds of content a message can carry.
const (
	ContentText ContentKind = iota
	ContentMe
	ContentImage
)

// MessageContent is the payload of a message: plain text, a /me style
// action, or an image.
type MessageContent struct {
	Kind ContentKind
	Text string
}

// Text returns plain text content.
func Text(text string) MessageContent {
	return MessageContent{Kind: ContentText, Text: text}
}

// Me returns /me style action content.
func Me(text string) MessageContent {
	return MessageContent{Kind: ContentMe, Text: text}
}

// Image returns image content.
func Image() MessageContent {
	return MessageContent{Kind: ContentImage}
}

// DisplayWithNick renders the content the way it appears in a transcript,
// attributed to nick.
func (m MessageContent) DisplayWithNick(nick string) string {
	switch m.Kind {
	case ContentMe:
		return fmt.Sprintf("* %s %s", nick, m.Text)
	case ContentImage:
		return fmt.Sprintf("<%s> [Image]", nick)
	}
	return fmt.Sprintf("<%s> %s", nick, m.Text)
}

// String renders the content for debug output.
func (m MessageContent) String() string {
	switch m.Kind {
	case ContentMe:
		return "me(" + m.Text + ")"
	case ContentImage:
		return "image"
	}
	return "text(" + m.Text + ")"
}

// Message is content bundled with its author and originating channel. It is
// immutable once constructed.
type Message struct {
	Author  string
	Channel Channel
	Content MessageContent
}

// EventKind discriminates the Event variants.
type EventKind uint8

// The event variants sources can emit.
const (
	EventConnected EventKind = iota
	EventDisconnected
	EventDirectInput
	EventReceivedMessage
	EventUserOnline
	EventUserOffline
	EventNickChange
	EventTimer
	EventOther
)

// Event is a single normalized happening on a source. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind EventKind
	// Text holds the line for EventDirectInput, the payload for EventOther
	// and the timer id for EventTimer.
	Text string
	// Message is set for EventReceivedMessage.
	Message Message
	// User is set for EventUserOnline, EventUserOffline and holds the old
	// nick for EventNickChange.
	User string
	// NewNick is set for EventNickChange.
	NewNick string
	// Reason is the optional part/quit comment for EventUserOffline.
	Reason string
}

// Connected returns the connection-established event.
func Connected() Event { return Event{Kind: EventConnected} }

// Disconnected returns the connection-lost event.
func Disconnected() Event { return Event{Kind: EventDisconnected} }

// DirectInput returns an event carrying a line of direct (console) input.
func DirectInput(line string) Event {
	return Event{Kind: EventDirectInput, Text: line}
}

// ReceivedMessage returns an event carrying an inbound message.
func ReceivedMessage(msg Message) Event {
	return Event{Kind: EventReceivedMessage, Message: msg}
}

// UserOnline returns an event announcing user's presence.
func UserOnline(user string) Event {
	return Event{Kind: EventUserOnline, User: user}
}

// UserOffline returns an event announcing user's departure. reason may be
// empty.
func UserOffline(user, reason string) Event {
	return Event{Kind: EventUserOffline, User: user, Reason: reason}
}

// NickChange returns an event announcing a nick change.
func NickChange(oldNick, newNick string) Event {
	return Event{Kind: EventNickChange, User: oldNick, NewNick: newNick}
}

// Timer returns a timer fire event for the given id.
func Timer(id string) Event {
	return Event{Kind: EventTimer, Text: id}
}

// Other returns an event for traffic that has no normalized form.
func Other(payload string) Event {
	return Event{Kind: EventOther, Text: payload}
}

// String renders a structural debug form of the event.
func (e Event) String() string {
	switch e.Kind {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventDirectInput:
		return "input: " + e.Text
	case EventReceivedMessage:
		m := e.Message
		return fmt.Sprintf("message from %s on %v: %v",
			m.Author, m.Channel, m.Content)
	case EventUserOnline:
		return "online: " + e.User
	case EventUserOffline:
		if len(e.Reason) > 0 {
			return "offline: " + e.User + " (" + e.Reason + ")"
		}
		return "offline: " + e.User
	case EventNickChange:
		return "nick: " + e.User + " -> " + e.NewNick
	case EventTimer:
		return "timer: " + e.Text
	}
	return "other: " + e.Text
}

// EventType is the tag a module subscribes to. Every event projects to
// exactly one type.
type EventType uint8

// The event type tags.
const (
	Connection EventType = iota
	Command
	TextMessage
	MeMessage
	ImageMessage
	UserStatus
	TimerType
	OtherType
)

var eventTypeNames = map[EventType]string{
	Connection:   "Connection",
	Command:      "Command",
	TextMessage:  "TextMessage",
	MeMessage:    "MeMessage",
	ImageMessage: "ImageMessage",
	UserStatus:   "UserStatus",
	TimerType:    "Timer",
	OtherType:    "Other",
}

// String returns the configuration file name of the event type.
func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", uint8(t))
}

// ParseEventType resolves a configuration file name into an event type.
func ParseEventType(name string) (EventType, bool) {
	for typ, typName := range eventTypeNames {
		if typName == name {
			return typ, true
		}
	}
	return 0, false
}

// Type projects the event onto its type tag. The projection is total: every
// event maps to exactly one tag.
func (e Event) Type() EventType {
	switch e.Kind {
	case EventConnected, EventDisconnected:
		return Connection
	case EventDirectInput:
		return Command
	case EventReceivedMessage:
		switch e.Message.Content.Kind {
		case ContentMe:
			return MeMessage
		case ContentImage:
			return ImageMessage
		}
		return TextMessage
	case EventUserOnline, EventUserOffline, EventNickChange:
		return UserStatus
	case EventTimer:
		return TimerType
	}
	return OtherType
}

// SourceEvent is an event bundled with the id of the source that produced
// it. Timer events use CoreSource.
type SourceEvent struct {
	Source SourceID
	Event  Event
}
