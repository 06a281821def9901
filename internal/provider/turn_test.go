package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []StreamEvent
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnStatus: func(_ context.Context, s string) error { r.events = append(r.events, Status(s)); return nil },
		OnText:   func(_ context.Context, s string) error { r.events = append(r.events, Snapshot(s)); return nil },
		OnDone:   func(_ context.Context, s string) error { r.events = append(r.events, Done(s)); return nil },
		OnError:  func(_ context.Context, s string) error { r.events = append(r.events, Failure(s)); return nil },
	}
}

func TestTurnLifecycle(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	turn := NewTurn("test", rec.callbacks())
	assert.Equal(t, StateNotStarted, turn.State())

	require.NoError(t, turn.Apply(ctx, Status("working")))
	assert.Equal(t, StateStreaming, turn.State())
	require.NoError(t, turn.Apply(ctx, Snapshot("a")))
	require.NoError(t, turn.Apply(ctx, Snapshot("a")))
	require.NoError(t, turn.Apply(ctx, Snapshot("ab")))
	require.NoError(t, turn.Apply(ctx, Done("abc")))

	// closed: late events are dropped
	require.NoError(t, turn.Apply(ctx, Snapshot("late")))
	assert.Equal(t, "abc", turn.Reply())
	assert.Equal(t, StateStreaming, turn.State())

	require.NoError(t, turn.Finish(ctx, turn.Reply()))
	assert.Equal(t, StateSucceeded, turn.State())
	turn.Fail(ctx, errors.New("too late"))
	assert.Equal(t, StateSucceeded, turn.State())

	assert.Equal(t, []StreamEvent{Status("working"), Snapshot("a"), Snapshot("ab"), Done("abc")}, rec.events)
}

func TestTurnReplyFallsBackToSnapshot(t *testing.T) {
	turn := NewTurn("test", Callbacks{})
	ctx := context.Background()
	require.NoError(t, turn.Apply(ctx, Snapshot("streamed")))
	require.NoError(t, turn.Apply(ctx, Done("")))
	assert.Equal(t, "streamed", turn.Reply())
}

func TestTurnErrorEvent(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	turn := NewTurn("test", rec.callbacks())

	err := turn.Apply(ctx, Failure("boom"))
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "boom", perr.Message)
	assert.Equal(t, StateFailed, turn.State())

	turn.Fail(ctx, errors.New("second"))
	require.NoError(t, turn.Finish(ctx, "x"))
	assert.Equal(t, []StreamEvent{Failure("test error: boom")}, rec.events)
}

func TestTurnCallbackErrorPropagates(t *testing.T) {
	want := errors.New("edit failed")
	turn := NewTurn("test", Callbacks{OnText: func(context.Context, string) error { return want }})
	assert.ErrorIs(t, turn.Apply(context.Background(), Snapshot("x")), want)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not_started", StateNotStarted.String())
	assert.Equal(t, "succeeded", StateSucceeded.String())
	assert.Equal(t, "unknown", State(42).String())
}
