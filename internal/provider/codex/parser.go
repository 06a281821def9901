package codex

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/joss/clibridge/internal/provider"
	bstrings "github.com/joss/clibridge/internal/strings"
)

// transient matches error events the CLI emits while it retries on its own.
var transient = regexp.MustCompile(`(?i)\b(reconnecting|retrying|stream disconnected)\b`)

const statusWidth = 80

// Parser classifies `codex exec --json` lines. Agent messages are tracked per
// item id so updates replace their own text and multiple messages join with a
// blank line.
type Parser struct {
	order    []string
	messages map[string]string
	legacy   string
	terminal bool
}

// NewParser creates a parser for one invocation.
func NewParser() *Parser {
	return &Parser{messages: make(map[string]string)}
}

// Reply returns the joined agent messages seen so far.
func (p *Parser) Reply() string {
	if len(p.order) == 0 {
		return p.legacy
	}
	parts := make([]string, 0, len(p.order))
	for _, id := range p.order {
		if text := strings.TrimSpace(p.messages[id]); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
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
	var ev Event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return nil
	}
	if ev.Msg != nil {
		return p.legacyEvent(ev.Msg)
	}

	switch ev.Type {
	case "item.started", "item.updated", "item.completed":
		return p.item(ev.Type, ev.Item)
	case "turn.completed":
		p.terminal = true
		return []provider.StreamEvent{provider.Done(p.Reply())}
	case "turn.failed":
		p.terminal = true
		return []provider.StreamEvent{provider.Failure(provider.ExtractErrorMessage(string(ev.Error), ""))}
	case "error":
		msg := ev.Message
		if msg == "" {
			msg = provider.ExtractErrorMessage(string(ev.Error), "")
		}
		if transient.MatchString(msg) {
			return []provider.StreamEvent{provider.Status(msg)}
		}
		p.terminal = true
		return []provider.StreamEvent{provider.Failure(provider.ExtractErrorMessage(msg, ""))}
	}
	return nil
}

func (p *Parser) item(kind string, it *Item) []provider.StreamEvent {
	if it == nil {
		return nil
	}
	switch it.Type {
	case "agent_message":
		if kind == "item.started" && it.Text == "" {
			return nil
		}
		if _, seen := p.messages[it.ID]; !seen {
			p.order = append(p.order, it.ID)
		}
		p.messages[it.ID] = it.Text
		return []provider.StreamEvent{provider.Snapshot(p.Reply())}
	case "reasoning":
		if first := strings.Trim(bstrings.FirstLine(it.Text), "*# "); first != "" {
			return []provider.StreamEvent{provider.Status("thinking… " + bstrings.TruncateRunes(first, statusWidth))}
		}
		return []provider.StreamEvent{provider.Status("thinking…")}
	case "command_execution":
		if kind != "item.started" || it.Command == "" {
			return nil
		}
		return []provider.StreamEvent{provider.Status("running command: " + bstrings.TruncateRunes(bstrings.Squash(it.Command), statusWidth))}
	case "file_change":
		if kind != "item.completed" || len(it.Changes) == 0 {
			return nil
		}
		paths := make([]string, 0, len(it.Changes))
		for _, c := range it.Changes {
			paths = append(paths, c.Path)
		}
		return []provider.StreamEvent{provider.Status("editing " + bstrings.TruncateRunes(strings.Join(paths, ", "), statusWidth))}
	case "mcp_tool_call":
		if kind != "item.started" {
			return nil
		}
		return []provider.StreamEvent{provider.Status(fmt.Sprintf("calling %s.%s", it.Server, it.Tool))}
	case "web_search":
		if kind != "item.started" {
			return nil
		}
		return []provider.StreamEvent{provider.Status("searching: " + bstrings.TruncateRunes(it.Query, statusWidth))}
	}
	return nil
}

func (p *Parser) legacyEvent(m *LegacyMsg) []provider.StreamEvent {
	switch m.Type {
	case "agent_message_delta":
		if m.Delta == "" {
			return nil
		}
		p.legacy += m.Delta
		return []provider.StreamEvent{provider.Snapshot(p.legacy)}
	case "agent_message":
		if m.Message == "" {
			return nil
		}
		p.legacy = m.Message
		return []provider.StreamEvent{provider.Snapshot(p.legacy)}
	case "exec_command_begin":
		if len(m.Command) == 0 {
			return nil
		}
		return []provider.StreamEvent{provider.Status("running command: " + bstrings.TruncateRunes(strings.Join(m.Command, " "), statusWidth))}
	case "task_complete":
		p.terminal = true
		if m.LastAgentMessage != "" {
			p.legacy = m.LastAgentMessage
		}
		return []provider.StreamEvent{provider.Done(p.legacy)}
	case "error", "stream_error":
		if transient.MatchString(m.Message) {
			return []provider.StreamEvent{provider.Status(m.Message)}
		}
		p.terminal = true
		return []provider.StreamEvent{provider.Failure(provider.ExtractErrorMessage(m.Message, ""))}
	}
	return nil
}
