// Package chat connects a chat platform to the orchestrator: it routes
// inbound messages, handles slash commands and streams replies into a single
// live-edited message.
package chat

import (
	"context"
	"errors"
)

// Platform edit failures the reply machinery tolerates.
var (
	// ErrNotModified is returned by Edit when the text equals the current content.
	ErrNotModified = errors.New("message not modified")

	// ErrFormatRejected is returned when the platform refuses rich formatting.
	ErrFormatRejected = errors.New("formatting rejected")
)

// Format selects how the platform should interpret message text.
type Format int

const (
	FormatPlain Format = iota
	FormatRich
)

func (f Format) String() string {
	if f == FormatRich {
		return "rich"
	}
	return "plain"
}

// MessageRef identifies a sent message for later edits.
type MessageRef struct {
	Conversation string
	ID           string
}

// Inbound is one user message.
type Inbound struct {
	Conversation string
	User         string
	Text         string
}

// Platform is the outbound side of a chat client.
type Platform interface {
	Send(ctx context.Context, conversation, text string, format Format) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string, format Format) error
	// Limit is the maximum message length in characters; 0 means unlimited.
	Limit() int
}

// Receiver is the inbound side of a chat client. Receive returns io.EOF when
// the input ends.
type Receiver interface {
	Receive(ctx context.Context) (Inbound, error)
}
