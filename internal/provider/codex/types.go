package codex

import "encoding/json"

// Event is one `codex exec --json` line.
type Event struct {
	Type     string          `json:"type"`
	ThreadID string          `json:"thread_id,omitempty"`
	Item     *Item           `json:"item,omitempty"`
	Error    json.RawMessage `json:"error,omitempty"`
	Message  string          `json:"message,omitempty"`

	// Msg carries the legacy `{"id":..,"msg":{..}}` envelope of older CLI builds.
	Msg *LegacyMsg `json:"msg,omitempty"`
}

// Item is a thread item (agent message, command, reasoning, ...).
type Item struct {
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Text    string       `json:"text,omitempty"`
	Command string       `json:"command,omitempty"`
	Status  string       `json:"status,omitempty"`
	Server  string       `json:"server,omitempty"`
	Tool    string       `json:"tool,omitempty"`
	Query   string       `json:"query,omitempty"`
	Changes []FileChange `json:"changes,omitempty"`
	Message string       `json:"message,omitempty"`
}

// FileChange is one entry of a file_change item.
type FileChange struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// LegacyMsg is the inner payload of the legacy envelope.
type LegacyMsg struct {
	Type             string   `json:"type"`
	Message          string   `json:"message,omitempty"`
	Delta            string   `json:"delta,omitempty"`
	Command          []string `json:"command,omitempty"`
	LastAgentMessage string   `json:"last_agent_message,omitempty"`
}
