package claude

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joss/clibridge/internal/provider"
	bstrings "github.com/joss/clibridge/internal/strings"
)

// toolDetailKeys are the tool input fields worth showing in a status line, by preference.
var toolDetailKeys = []string{"command", "file_path", "path", "pattern", "url", "query", "description", "prompt"}

// Parser classifies stream-json lines. Not safe for concurrent use; the
// executor delivers lines sequentially.
type Parser struct {
	buffer   string
	terminal bool
}

// NewParser creates a parser for one invocation.
func NewParser() *Parser {
	return &Parser{}
}

// Feed implements provider.LineParser.
func (p *Parser) Feed(line string) []provider.StreamEvent {
	if p.terminal {
		return nil
	}
	line = strings.TrimSpace(line)
	if line == "" || line[0] != '{' {
		return nil
	}
	var ev RawEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return nil
	}

	switch ev.Type {
	case "stream_event":
		return p.streamEvent(ev.Event)
	case "assistant":
		return p.assistant(ev.Message)
	case "result":
		p.terminal = true
		return []provider.StreamEvent{p.result(ev)}
	case "error":
		p.terminal = true
		return []provider.StreamEvent{provider.Failure(provider.ExtractErrorMessage(errorPayload(ev), ""))}
	}
	return nil
}

func (p *Parser) streamEvent(se *StreamEvent) []provider.StreamEvent {
	if se == nil {
		return nil
	}
	switch se.Type {
	case "message_start":
		// A new assistant message (e.g. after a tool call) starts a fresh reply.
		p.buffer = ""
	case "content_block_delta":
		if se.Delta == nil || se.Delta.Type != "text_delta" || se.Delta.Text == "" {
			return nil
		}
		p.buffer += se.Delta.Text
		return []provider.StreamEvent{provider.Snapshot(p.buffer)}
	}
	return nil
}

func (p *Parser) assistant(msg *MessageContent) []provider.StreamEvent {
	if msg == nil || len(msg.Content) == 0 {
		return nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(msg.Content, &blocks); err != nil {
		// Content may be a bare string.
		var text string
		if json.Unmarshal(msg.Content, &text) != nil || text == "" {
			return nil
		}
		p.buffer = text
		return []provider.StreamEvent{provider.Snapshot(p.buffer)}
	}

	var (
		events []provider.StreamEvent
		texts  []string
	)
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text != "" {
				texts = append(texts, b.Text)
			}
		case "tool_use":
			events = append(events, provider.Status(toolStatus(b)))
		}
	}
	if len(texts) > 0 {
		p.buffer = strings.Join(texts, "")
		events = append(events, provider.Snapshot(p.buffer))
	}
	return events
}

func (p *Parser) result(ev RawEvent) provider.StreamEvent {
	var text string
	if len(ev.Result) > 0 {
		if json.Unmarshal(ev.Result, &text) != nil {
			text = string(ev.Result)
		}
	}

	if ev.IsError || strings.HasPrefix(ev.Subtype, "error") {
		payload := text
		if payload == "" && len(ev.Errors) > 0 {
			payload = strings.Join(ev.Errors, "; ")
		}
		if payload == "" {
			payload = strings.ReplaceAll(ev.Subtype, "_", " ")
		}
		return provider.Failure(provider.ExtractErrorMessage(payload, ""))
	}

	if strings.TrimSpace(text) == "" {
		text = p.buffer
	}
	return provider.Done(text)
}

func errorPayload(ev RawEvent) string {
	if len(ev.Error) > 0 {
		return string(ev.Error)
	}
	if len(ev.Result) > 0 {
		return string(ev.Result)
	}
	return ""
}

func toolStatus(b ContentBlock) string {
	name := b.Name
	if name == "" {
		name = "tool"
	}
	for _, key := range toolDetailKeys {
		if v, ok := b.Input[key].(string); ok && strings.TrimSpace(v) != "" {
			return fmt.Sprintf("running %s: %s", name, bstrings.TruncateRunes(bstrings.Squash(v), 80))
		}
	}
	return "running " + name
}
