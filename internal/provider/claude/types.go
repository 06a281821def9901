package claude

import "encoding/json"

// RawEvent is one stream-json line.
type RawEvent struct {
	Type    string          `json:"type"`
	Subtype string          `json:"subtype,omitempty"`
	Message *MessageContent `json:"message,omitempty"`
	Event   *StreamEvent    `json:"event,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	IsError bool            `json:"is_error,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
	Model   string          `json:"model,omitempty"`
}

// MessageContent is the assistant/user message body.
type MessageContent struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Model   string          `json:"model,omitempty"`
}

// ContentBlock is a single block in the content array.
type ContentBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

// StreamEvent wraps a raw API streaming event (partial messages).
type StreamEvent struct {
	Type  string `json:"type"`
	Delta *Delta `json:"delta,omitempty"`
}

// Delta is a content_block_delta payload.
type Delta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
