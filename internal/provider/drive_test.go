package provider

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/clibridge/internal/exec"
)

// lineParser treats "status:", "text:", "done:" and "error:" prefixes as events.
type lineParser struct{}

func (lineParser) Feed(line string) []StreamEvent {
	kind, text, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}
	switch kind {
	case "status":
		return []StreamEvent{Status(text)}
	case "text":
		return []StreamEvent{Snapshot(text)}
	case "done":
		return []StreamEvent{Done(text)}
	case "error":
		return []StreamEvent{Failure(text)}
	}
	return nil
}

func TestDriveSuccess(t *testing.T) {
	x := exec.NewScriptedExecutor(exec.Script{Lines: []string{"status:busy", "text:hi", "done:hi there"}})
	rec := &recorder{}

	reply, err := Drive(context.Background(), x, "fake", exec.Command{Name: "fake"}, lineParser{}, rec.callbacks(), ExitPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)
	assert.Equal(t, []StreamEvent{Status("busy"), Snapshot("hi"), Done("hi there")}, rec.events)
}

func TestDriveExitPolicy(t *testing.T) {
	script := exec.Script{Lines: []string{"text:partial"}, ExitCode: 3, Stderr: "fatal: broken\n"}

	t.Run("strict", func(t *testing.T) {
		rec := &recorder{}
		_, err := Drive(context.Background(), exec.NewScriptedExecutor(script), "fake", exec.Command{}, lineParser{}, rec.callbacks(), ExitPolicy{})
		assert.EqualError(t, err, "fake exited with code 3: fatal: broken")
		require.Len(t, rec.events, 2)
		assert.Equal(t, EventError, rec.events[1].Kind)
	})

	t.Run("tolerant", func(t *testing.T) {
		rec := &recorder{}
		reply, err := Drive(context.Background(), exec.NewScriptedExecutor(script), "fake", exec.Command{}, lineParser{}, rec.callbacks(), ExitPolicy{TolerateFailureWithReply: true})
		require.NoError(t, err)
		assert.Equal(t, "partial", reply)
		assert.Equal(t, []StreamEvent{Snapshot("partial"), Done("partial")}, rec.events)
	})
}

func TestDriveSingleTerminalEvent(t *testing.T) {
	x := exec.NewScriptedExecutor(exec.Script{Lines: []string{"error:first", "error:second", "done:never"}})
	rec := &recorder{}

	_, err := Drive(context.Background(), x, "fake", exec.Command{}, lineParser{}, rec.callbacks(), ExitPolicy{})
	require.Error(t, err)
	assert.Equal(t, []StreamEvent{Failure("fake error: first")}, rec.events)
}

func TestDriveDeadline(t *testing.T) {
	hold := make(chan struct{})
	defer close(hold)
	x := exec.NewScriptedExecutor(exec.Script{Lines: []string{"text:slow"}, Hold: hold})
	rec := &recorder{}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Drive(ctx, x, "fake", exec.Command{Name: "fake"}, lineParser{}, rec.callbacks(), ExitPolicy{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, rec.events, 2)
	assert.Equal(t, Failure("request timed out"), rec.events[1])
}
