// Package session keeps per-conversation state: the active provider, a
// bounded message history and per-provider model/effort overrides.
package session

import (
	"time"

	"github.com/joss/clibridge/internal/provider"
)

// DocumentVersion is the persisted schema version.
const DocumentVersion = 1

// DefaultMaxHistory bounds stored messages per conversation.
const DefaultMaxHistory = 20

// Session is the state of one conversation.
type Session struct {
	Provider  string             `json:"provider"`
	History   []provider.Message `json:"history"`
	Models    map[string]string  `json:"models,omitempty"`
	Efforts   map[string]string  `json:"efforts,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (s *Session) clone() Session {
	c := Session{
		Provider:  s.Provider,
		History:   append([]provider.Message(nil), s.History...),
		UpdatedAt: s.UpdatedAt,
	}
	if len(s.Models) > 0 {
		c.Models = make(map[string]string, len(s.Models))
		for k, v := range s.Models {
			c.Models[k] = v
		}
	}
	if len(s.Efforts) > 0 {
		c.Efforts = make(map[string]string, len(s.Efforts))
		for k, v := range s.Efforts {
			c.Efforts[k] = v
		}
	}
	return c
}

// document is the persisted form of the whole store.
type document struct {
	Version   int                 `json:"version"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Sessions  map[string]*Session `json:"sessions"`
}

// trimHistory drops the oldest messages beyond max, then any leading
// non-user messages so history always starts with a user turn.
func trimHistory(h []provider.Message, max int) []provider.Message {
	if max > 0 && len(h) > max {
		h = h[len(h)-max:]
	}
	for len(h) > 0 && h[0].Role != provider.RoleUser {
		h = h[1:]
	}
	// detach from the dropped prefix
	return append([]provider.Message(nil), h...)
}
