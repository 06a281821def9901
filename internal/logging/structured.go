// Package logging provides structured JSON logging for bridge components.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Event represents a structured log event
type Event struct {
	Timestamp    string                 `json:"ts"`
	Level        Level                  `json:"level"`
	Component    string                 `json:"component"`
	Event        string                 `json:"event"`
	Conversation string                 `json:"conversation,omitempty"`
	Provider     string                 `json:"provider,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Duration     int64                  `json:"duration_ms,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Extra        map[string]interface{} `json:"extra,omitempty"`
}

var (
	outMu    sync.Mutex
	out      io.Writer = os.Stderr
	minLevel           = ParseLevel(os.Getenv("CLIBRIDGE_LOG_LEVEL"))
)

// SetOutput redirects all loggers. Returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

// SetLevel sets the minimum level that is emitted.
func SetLevel(l Level) {
	outMu.Lock()
	defer outMu.Unlock()
	minLevel = l
}

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides structured logging
type Logger struct {
	component    string
	conversation string
	provider     string
	requestID    string
}

// New creates a new logger for a component
func New(component string) *Logger {
	return &Logger{component: component}
}

// WithConversation sets the conversation context
func (l *Logger) WithConversation(key string) *Logger {
	c := *l
	c.conversation = key
	return &c
}

// WithProvider sets the provider context
func (l *Logger) WithProvider(provider string) *Logger {
	c := *l
	c.provider = provider
	return &c
}

// WithRequest sets the request correlation ID
func (l *Logger) WithRequest(id string) *Logger {
	c := *l
	c.requestID = id
	return &c
}

func (l *Logger) emit(e Event) {
	outMu.Lock()
	defer outMu.Unlock()
	if levelRank[e.Level] < levelRank[minLevel] {
		return
	}
	data, _ := json.Marshal(e)
	fmt.Fprintln(out, string(data))
}

func (l *Logger) event(level Level, event string, extra map[string]interface{}, err error) Event {
	e := Event{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Level:        level,
		Component:    l.component,
		Event:        event,
		Conversation: l.conversation,
		Provider:     l.provider,
		RequestID:    l.requestID,
		Extra:        extra,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	l.emit(l.event(LevelDebug, event, extra, nil))
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]interface{}) {
	l.emit(l.event(LevelInfo, event, extra, nil))
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	l.emit(l.event(LevelWarn, event, extra, err))
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	l.emit(l.event(LevelError, event, extra, err))
}

// TimedEvent logs an event with duration. A non-nil err raises the level to error.
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]interface{}, err error) {
	level := LevelInfo
	if err != nil {
		level = LevelError
	}
	e := l.event(level, event, extra, err)
	e.Duration = time.Since(start).Milliseconds()
	l.emit(e)
}
