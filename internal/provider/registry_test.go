package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubAdapter struct{ id string }

func (s stubAdapter) ID() string                    { return s.id }
func (s stubAdapter) Name() string                  { return s.id }
func (s stubAdapter) SupportsReasoningEffort() bool { return false }
func (s stubAdapter) Stream(context.Context, []Message, Callbacks, Options) (string, error) {
	return "ok", nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(stubAdapter{"codex"}, stubAdapter{"claude"})
	r.Register(stubAdapter{"codex"})

	assert.Equal(t, []string{"codex", "claude"}, r.Available())
	assert.Equal(t, 2, r.Len())

	a, ok := r.Get("claude")
	assert.True(t, ok)
	assert.Equal(t, "claude", a.ID())

	_, ok = r.Get("gemini")
	assert.False(t, ok)
}

func TestRenderTranscript(t *testing.T) {
	got := RenderTranscript([]Message{
		{Role: RoleSystem, Content: "Be brief."},
		{Role: RoleUser, Content: "  hi  "},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "bye"},
	})
	assert.Equal(t, "System:\nBe brief.\n\nUser:\nhi\n\nAssistant:\nhello\n\nUser:\nbye\n\nAssistant:\n", got)
}
