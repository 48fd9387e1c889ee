package sources

import (
	"fmt"

	"github.com/aarondl/multiq/chat"
)

// DisconnectedError is returned when a send is attempted on a source that
// is not connected.
type DisconnectedError struct {
	Source chat.SourceID
}

func (e DisconnectedError) Error() string {
	return fmt.Sprintf("sources: %s is disconnected", e.Source)
}

// EOFError is returned when a source reaches the end of its input; the
// console source primarily.
type EOFError struct {
	Source chat.SourceID
}

func (e EOFError) Error() string {
	return fmt.Sprintf("sources: %s reached end of input", e.Source)
}

// ConnectionError wraps a failure of the underlying client to come up or
// stay up.
type ConnectionError struct {
	Source chat.SourceID
	Err    error
}

func (e ConnectionError) Error() string {
	return fmt.Sprintf("sources: %s connection error: %v", e.Source, e.Err)
}

// InvalidChannelError is returned when a channel variant is unsupported by
// the source type or cannot be resolved on the network.
type InvalidChannelError struct {
	Source  chat.SourceID
	Channel chat.Channel
}

func (e InvalidChannelError) Error() string {
	return fmt.Sprintf("sources: %s cannot deliver to %v", e.Source, e.Channel)
}

// InvalidMessageError is returned when a content variant is unsupported by
// the source type.
type InvalidMessageError struct {
	Source  chat.SourceID
	Content chat.MessageContent
}

func (e InvalidMessageError) Error() string {
	return fmt.Sprintf("sources: %s cannot send %v", e.Source, e.Content)
}
