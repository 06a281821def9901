package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/joss/clibridge/internal/exec"
)

// ErrEmptyReply is returned when a provider finished without producing text.
var ErrEmptyReply = errors.New("provider produced no content")

// ProtocolError is a structured failure reported by the subprocess mid-stream.
type ProtocolError struct {
	Provider string
	Message  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

// ExitError is a non-zero exit (or kill) the adapter did not tolerate.
type ExitError struct {
	Provider string
	Code     int
	Signal   string
	Message  string
}

func (e *ExitError) Error() string {
	status := fmt.Sprintf("code %d", e.Code)
	if e.Signal != "" {
		status = "signal " + e.Signal
	}
	if e.Message == "" {
		return fmt.Sprintf("%s exited with %s", e.Provider, status)
	}
	return fmt.Sprintf("%s exited with %s: %s", e.Provider, status, e.Message)
}

// ConfigError is rejected configuration: unknown provider, bad override value.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// Configf builds a ConfigError.
func Configf(format string, args ...any) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// Describe renders err as a single human-readable line for chat users.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var (
		spawn    *exec.SpawnError
		protocol *ProtocolError
		exit     *ExitError
		cfg      *ConfigError
	)
	switch {
	case errors.As(err, &cfg):
		return cfg.Message
	case errors.As(err, &spawn):
		return fmt.Sprintf("could not start %s: %v", spawn.Name, spawn.Err)
	case errors.As(err, &protocol):
		return protocol.Error()
	case errors.As(err, &exit):
		return exit.Error()
	case errors.Is(err, ErrEmptyReply):
		return ErrEmptyReply.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	}
	return err.Error()
}

var messageKeys = []string{"message", "detail", "error_description", "msg"}

// messageFromJSON digs a human message out of a JSON error payload.
func messageFromJSON(raw string) (string, bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return "", false
	}
	return messageFromValue(v)
}

func messageFromValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		if nested, ok := messageFromJSON(s); ok {
			return nested, true
		}
		return s, true
	case map[string]any:
		if inner, ok := t["error"]; ok {
			if msg, ok := messageFromValue(inner); ok {
				return msg, true
			}
		}
		for _, key := range messageKeys {
			if msg, ok := messageFromValue(t[key]); ok {
				return msg, true
			}
		}
	}
	return "", false
}

// ExtractErrorMessage prefers a structured field of a JSON-shaped payload,
// then the raw payload text, then the last meaningful stderr line.
func ExtractErrorMessage(payload, stderrTail string) string {
	raw := strings.TrimSpace(payload)
	if raw != "" {
		if msg, ok := messageFromJSON(raw); ok {
			return msg
		}
		// e.g. `API Error: 400 {"type":"error","error":{"message":"..."}}`
		if i, j := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); i >= 0 && j > i {
			if msg, ok := messageFromJSON(raw[i : j+1]); ok {
				return msg
			}
		}
		return raw
	}
	if line := LastMeaningfulLine(stderrTail); line != "" {
		return line
	}
	return "unknown error"
}

var stderrNoise = regexp.MustCompile(`(?i)^(\s*at\s|\[?(debug|trace|info|warn|warning)\]?[:\s]|\(node:\d+\)|\(use .node --trace|\d{4}-\d{2}-\d{2}t[\d:.]+z?\s+(debug|info|warn|trace))`)

// LastMeaningfulLine returns the last stderr line that is not blank or
// diagnostic noise (log levels below error, stack frames, node warnings).
func LastMeaningfulLine(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || stderrNoise.MatchString(line) {
			continue
		}
		if msg, ok := messageFromJSON(line); ok {
			return msg
		}
		return line
	}
	return ""
}
