// Package provider defines the unified streaming contract implemented by every
// subprocess-backed provider, plus the shared machinery the variants build on.
package provider

import (
	"context"
	"strings"
)

// Known provider identifiers.
const (
	Claude = "claude"
	Codex  = "codex"
)

// Role tags a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// EventKind classifies a StreamEvent.
type EventKind string

const (
	EventStatus EventKind = "status"
	EventText   EventKind = "text"
	EventDone   EventKind = "done"
	EventError  EventKind = "error"
)

// StreamEvent is the unified adapter output. Text events carry a snapshot of the
// whole reply so far, never a delta.
type StreamEvent struct {
	Kind EventKind
	Text string
}

// Terminal reports whether no further events may follow e.
func (e StreamEvent) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventError
}

// Status builds a status event.
func Status(text string) StreamEvent { return StreamEvent{Kind: EventStatus, Text: text} }

// Snapshot builds a text event.
func Snapshot(text string) StreamEvent { return StreamEvent{Kind: EventText, Text: text} }

// Done builds a terminal success event.
func Done(text string) StreamEvent { return StreamEvent{Kind: EventDone, Text: text} }

// Failure builds a terminal error event.
func Failure(message string) StreamEvent { return StreamEvent{Kind: EventError, Text: message} }

// Callbacks receive the events of one invocation. Any of them may be nil.
// Returning an error aborts the invocation and terminates the subprocess.
type Callbacks struct {
	OnStatus func(ctx context.Context, text string) error
	OnText   func(ctx context.Context, text string) error
	OnDone   func(ctx context.Context, text string) error
	OnError  func(ctx context.Context, message string) error
}

// Options are per-invocation overrides. Empty values mean provider default.
type Options struct {
	Model           string
	ReasoningEffort string
}

// Adapter is a subprocess-backed provider.
type Adapter interface {
	ID() string
	Name() string
	SupportsReasoningEffort() bool
	// Stream runs one conversation turn. history must end with the new user message.
	Stream(ctx context.Context, history []Message, cb Callbacks, opts Options) (string, error)
}

// ReasoningEfforts lists the accepted effort levels.
var ReasoningEfforts = []string{"minimal", "low", "medium", "high", "xhigh"}

// ValidEffort reports whether level is an accepted effort level.
func ValidEffort(level string) bool {
	for _, e := range ReasoningEfforts {
		if e == level {
			return true
		}
	}
	return false
}

// IsDefault reports whether an override value means "clear the override".
func IsDefault(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, "default")
}
