package provider

import (
	"context"
	"sync"
)

// State is the lifecycle of one invocation.
type State int

const (
	StateNotStarted State = iota
	StateStreaming
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateStreaming:
		return "streaming"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Turn is the per-invocation state machine shared by all adapters.
//
// Status and text events are forwarded while streaming. A done event closes the
// stream but the turn only becomes Succeeded once the process outcome is known
// (Finish), so exactly one of OnDone or OnError ever fires.
type Turn struct {
	provider string
	cb       Callbacks

	mu       sync.Mutex
	state    State
	closed   bool
	snapshot string
	final    string
	hasFinal bool
}

// NewTurn creates a turn for provider reporting to cb.
func NewTurn(provider string, cb Callbacks) *Turn {
	return &Turn{provider: provider, cb: cb}
}

// State returns the current state.
func (t *Turn) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Reply returns the reply captured so far: the terminal text when one was
// reported, otherwise the latest snapshot.
func (t *Turn) Reply() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hasFinal && t.final != "" {
		return t.final
	}
	return t.snapshot
}

// Apply feeds one classified event. Events after the stream closed are dropped.
// An error event fails the turn and is returned as a *ProtocolError.
func (t *Turn) Apply(ctx context.Context, ev StreamEvent) error {
	t.mu.Lock()
	if t.closed || t.state == StateSucceeded || t.state == StateFailed {
		t.mu.Unlock()
		return nil
	}
	t.state = StateStreaming

	switch ev.Kind {
	case EventStatus:
		t.mu.Unlock()
		return call(ctx, t.cb.OnStatus, ev.Text)
	case EventText:
		if ev.Text == t.snapshot {
			t.mu.Unlock()
			return nil
		}
		t.snapshot = ev.Text
		t.mu.Unlock()
		return call(ctx, t.cb.OnText, ev.Text)
	case EventDone:
		t.closed = true
		t.final = ev.Text
		t.hasFinal = true
		t.mu.Unlock()
		return nil
	case EventError:
		t.mu.Unlock()
		err := &ProtocolError{Provider: t.provider, Message: ev.Text}
		t.Fail(ctx, err)
		return err
	}
	t.mu.Unlock()
	return nil
}

// Finish moves the turn to Succeeded and fires OnDone once.
func (t *Turn) Finish(ctx context.Context, reply string) error {
	t.mu.Lock()
	if t.state == StateSucceeded || t.state == StateFailed {
		t.mu.Unlock()
		return nil
	}
	t.state = StateSucceeded
	t.closed = true
	t.mu.Unlock()
	return call(ctx, t.cb.OnDone, reply)
}

// Fail moves the turn to Failed and fires OnError once.
func (t *Turn) Fail(ctx context.Context, err error) {
	t.mu.Lock()
	if t.state == StateSucceeded || t.state == StateFailed {
		t.mu.Unlock()
		return
	}
	t.state = StateFailed
	t.closed = true
	t.mu.Unlock()
	_ = call(ctx, t.cb.OnError, Describe(err))
}

func call(ctx context.Context, fn func(context.Context, string) error, text string) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, text)
}
