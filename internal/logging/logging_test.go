package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decode(t *testing.T, buf *bytes.Buffer) []Event {
	t.Helper()
	var events []Event
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("failed to parse %q: %v", line, err)
		}
		events = append(events, e)
	}
	return events
}

func TestLoggerContext(t *testing.T) {
	buf := quiet(t)
	SetLevel(LevelInfo)

	New("session").WithConversation("chat-1").WithProvider("codex").WithRequest("r1").
		Info("saved", map[string]interface{}{"count": 2})

	events := decode(t, buf)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Component != "session" || e.Conversation != "chat-1" || e.Provider != "codex" || e.RequestID != "r1" {
		t.Errorf("unexpected context fields: %+v", e)
	}
	if e.Level != LevelInfo {
		t.Errorf("expected level 'info', got '%s'", e.Level)
	}
}

func TestWithDoesNotMutateParent(t *testing.T) {
	base := New("component")
	child := base.WithConversation("c")
	if base.conversation != "" {
		t.Errorf("parent logger mutated: %q", base.conversation)
	}
	if child.conversation != "c" {
		t.Errorf("expected conversation 'c', got %q", child.conversation)
	}
}

func TestLevelFilter(t *testing.T) {
	buf := quiet(t)
	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	l := New("test")
	l.Debug("d", nil)
	l.Info("i", nil)
	l.Warn("w", nil, errors.New("boom"))

	events := decode(t, buf)
	if len(events) != 1 {
		t.Fatalf("expected only the warning, got %d events", len(events))
	}
	if events[0].Error != "boom" {
		t.Errorf("expected error 'boom', got %q", events[0].Error)
	}
}

func TestTimedEvent(t *testing.T) {
	buf := quiet(t)
	SetLevel(LevelInfo)

	start := time.Now().Add(-50 * time.Millisecond)
	New("exec").TimedEvent("process_exit", start, nil, nil)
	New("exec").TimedEvent("process_exit", start, nil, errors.New("exit 1"))

	events := decode(t, buf)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Duration < 50 {
		t.Errorf("expected duration >= 50ms, got %d", events[0].Duration)
	}
	if events[1].Level != LevelError {
		t.Errorf("expected error level when err set, got %s", events[1].Level)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"":      LevelInfo,
		"debug": LevelDebug,
		"WARN":  LevelWarn,
		"error": LevelError,
		"bogus": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
