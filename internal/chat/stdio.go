package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joss/clibridge/internal/logging"
)

// StdioPlatform speaks a line-delimited JSON protocol so another process can
// act as the chat client.
//
// Input lines:  {"conversation":"c1","user":"alice","text":"hi"}
// Output lines: {"type":"send"|"edit","conversation":"c1","id":"<uuid>","text":"...","format":"rich"}
type StdioPlatform struct {
	limit int
	in    *lineReader
	log   *logging.Logger

	mu  sync.Mutex
	enc *json.Encoder

	// latest message per conversation, to report no-op edits
	last map[string]sentMessage
}

type sentMessage struct {
	id   string
	text string
}

// StdioEvent is one output line.
type StdioEvent struct {
	Type         string `json:"type"`
	Conversation string `json:"conversation"`
	ID           string `json:"id"`
	Text         string `json:"text"`
	Format       string `json:"format"`
}

type stdioInput struct {
	Conversation string `json:"conversation"`
	User         string `json:"user,omitempty"`
	Text         string `json:"text"`
}

// NewStdioPlatform creates a JSONL platform over in and out.
func NewStdioPlatform(in io.Reader, out io.Writer, limit int) *StdioPlatform {
	return &StdioPlatform{
		limit: limit,
		in:    newLineReader(in, 4*1024*1024),
		log:   logging.New("stdio"),
		enc:   json.NewEncoder(out),
		last:  make(map[string]sentMessage),
	}
}

// Limit returns the configured message limit.
func (s *StdioPlatform) Limit() int { return s.limit }

// Receive decodes the next valid input line. Malformed lines are logged and skipped.
func (s *StdioPlatform) Receive(ctx context.Context) (Inbound, error) {
	for {
		raw, err := s.in.next(ctx)
		if err != nil {
			return Inbound{}, err
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		var msg stdioInput
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			s.log.Warn("malformed_input", map[string]interface{}{"line": line}, err)
			continue
		}
		if msg.Conversation == "" {
			s.log.Warn("malformed_input", map[string]interface{}{"line": line}, fmt.Errorf("missing conversation"))
			continue
		}
		return Inbound{Conversation: msg.Conversation, User: msg.User, Text: msg.Text}, nil
	}
}

// Send emits a send event with a fresh message id.
func (s *StdioPlatform) Send(_ context.Context, conversation, text string, format Format) (MessageRef, error) {
	ref := MessageRef{Conversation: conversation, ID: uuid.NewString()}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[conversation] = sentMessage{id: ref.ID, text: text}
	return ref, s.enc.Encode(StdioEvent{Type: "send", Conversation: conversation, ID: ref.ID, Text: text, Format: format.String()})
}

// Edit emits an edit event unless the text is unchanged.
func (s *StdioPlatform) Edit(_ context.Context, ref MessageRef, text string, format Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.last[ref.Conversation]; ok && prev.id == ref.ID && prev.text == text {
		return ErrNotModified
	}
	s.last[ref.Conversation] = sentMessage{id: ref.ID, text: text}
	return s.enc.Encode(StdioEvent{Type: "edit", Conversation: ref.Conversation, ID: ref.ID, Text: text, Format: format.String()})
}
