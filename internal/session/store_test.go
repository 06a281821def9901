package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/clibridge/internal/logging"
	"github.com/joss/clibridge/internal/metrics"
	"github.com/joss/clibridge/internal/provider"
	"github.com/joss/clibridge/internal/store"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := logging.SetOutput(buf)
	t.Cleanup(func() { logging.SetOutput(prev) })
	return buf
}

func openFile(t *testing.T, path string, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithMetrics(metrics.New())}, opts...)
	return Open(context.Background(), store.NewFileBackend(path), opts...)
}

func TestEmptyStore(t *testing.T) {
	s := openFile(t, filepath.Join(t.TempDir(), "sessions.json"))
	assert.Equal(t, 0, s.SessionCount())
	assert.Empty(t, s.Keys())

	_, ok := s.Snapshot("chat-1")
	assert.False(t, ok)
}

func TestDefaultsAndLazyCreation(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.json")
	s := openFile(t, path, WithProviders(provider.Codex, provider.Claude))
	assert.Equal(t, provider.Codex, s.Provider("chat-1"))
	assert.Equal(t, "", s.Model("chat-1", provider.Codex))
	assert.Equal(t, "", s.Effort("chat-1", provider.Codex))
	assert.Len(t, s.BuildPrompt("chat-1", "hi"), 1)
	assert.Equal(t, 0, s.SessionCount())

	// reads never leak into the persisted document
	require.NoError(t, s.SetModel(ctx, "chat-2", provider.Codex, "gpt-5"))
	assert.Equal(t, []string{"chat-2"}, openFile(t, path).Keys())
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.json")

	s := openFile(t, path)
	require.NoError(t, s.SetProvider(ctx, "chat-1", "Codex"))
	require.NoError(t, s.SetModel(ctx, "chat-1", provider.Codex, "gpt-5"))
	require.NoError(t, s.SetEffort(ctx, "chat-1", provider.Codex, "HIGH"))
	s.AppendExchange(ctx, "chat-1", "hi", "hello")

	reloaded := openFile(t, path)
	assert.Equal(t, 1, reloaded.SessionCount())
	assert.Equal(t, provider.Codex, reloaded.Provider("chat-1"))
	assert.Equal(t, "gpt-5", reloaded.Model("chat-1", provider.Codex))
	assert.Equal(t, "high", reloaded.Effort("chat-1", provider.Codex))

	snap, ok := reloaded.Snapshot("chat-1")
	require.True(t, ok)
	assert.Equal(t, []provider.Message{
		{Role: provider.RoleUser, Content: "hi"},
		{Role: provider.RoleAssistant, Content: "hello"},
	}, snap.History)
	assert.False(t, snap.UpdatedAt.IsZero())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.EqualValues(t, DocumentVersion, doc["version"])
	assert.Contains(t, doc, "sessions")
}

func TestDefaultClearsOverride(t *testing.T) {
	ctx := context.Background()
	s := openFile(t, filepath.Join(t.TempDir(), "sessions.json"))

	require.NoError(t, s.SetModel(ctx, "k", provider.Claude, "gpt-x"))
	assert.Equal(t, "gpt-x", s.Model("k", provider.Claude))

	require.NoError(t, s.SetModel(ctx, "k", provider.Claude, "default"))
	assert.Equal(t, "", s.Model("k", provider.Claude))

	snap, _ := s.Snapshot("k")
	assert.Nil(t, snap.Models)

	require.NoError(t, s.SetEffort(ctx, "k", provider.Codex, "low"))
	require.NoError(t, s.SetEffort(ctx, "k", provider.Codex, "  "))
	assert.Equal(t, "", s.Effort("k", provider.Codex))
}

func TestOverridesArePerProvider(t *testing.T) {
	ctx := context.Background()
	s := openFile(t, filepath.Join(t.TempDir(), "sessions.json"))

	require.NoError(t, s.SetModel(ctx, "k", provider.Claude, "opus"))
	require.NoError(t, s.SetModel(ctx, "k", provider.Codex, "gpt-5"))
	assert.Equal(t, "opus", s.Model("k", provider.Claude))
	assert.Equal(t, "gpt-5", s.Model("k", provider.Codex))
}

func TestRejectsInvalidValues(t *testing.T) {
	ctx := context.Background()
	s := openFile(t, filepath.Join(t.TempDir(), "sessions.json"))

	err := s.SetProvider(ctx, "k", "cl")
	var cfg *provider.ConfigError
	require.True(t, errors.As(err, &cfg))
	assert.Contains(t, cfg.Message, `unknown provider "cl"`)
	assert.Contains(t, cfg.Message, `did you mean "claude"?`)
	assert.Contains(t, cfg.Message, "available: claude, codex")

	err = s.SetProvider(ctx, "k", "gemini")
	require.True(t, errors.As(err, &cfg))
	assert.NotContains(t, cfg.Message, "did you mean")

	err = s.SetEffort(ctx, "k", provider.Codex, "extreme")
	require.True(t, errors.As(err, &cfg))
	assert.Contains(t, cfg.Message, "invalid reasoning effort")

	assert.Error(t, s.SetModel(ctx, "k", "gemini", "x"))

	// rejected before touching anything
	assert.Equal(t, 0, s.SessionCount())
}

func TestHistoryTrimming(t *testing.T) {
	ctx := context.Background()
	s := openFile(t, filepath.Join(t.TempDir(), "sessions.json"), WithMaxHistory(5))

	for i := 0; i < 4; i++ {
		s.AppendExchange(ctx, "k", "q"+string(rune('0'+i)), "a"+string(rune('0'+i)))
	}

	snap, _ := s.Snapshot("k")
	// the last 5 of 8 messages start with a1, which is dropped
	require.Len(t, snap.History, 4)
	assert.Equal(t, provider.RoleUser, snap.History[0].Role)
	assert.Equal(t, "q2", snap.History[0].Content)
	assert.Equal(t, "a3", snap.History[3].Content)
}

func TestTrimHistory(t *testing.T) {
	msgs := []provider.Message{
		{Role: provider.RoleAssistant, Content: "orphan"},
		{Role: provider.RoleUser, Content: "u1"},
		{Role: provider.RoleAssistant, Content: "a1"},
	}
	assert.Equal(t, msgs[1:], trimHistory(msgs, 10))
	assert.Empty(t, trimHistory(msgs[:1], 10))
	assert.Empty(t, trimHistory(msgs, 1))
}

func TestResetIsolation(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.json")
	s := openFile(t, path)

	s.AppendExchange(ctx, "a", "hi", "hello")
	s.AppendExchange(ctx, "b", "yo", "hey")
	require.NoError(t, s.SetModel(ctx, "a", provider.Claude, "opus"))

	assert.True(t, s.Reset(ctx, "a"))
	assert.False(t, s.Reset(ctx, "a"))

	_, ok := s.Snapshot("a")
	assert.False(t, ok)
	snap, ok := s.Snapshot("b")
	require.True(t, ok)
	assert.Len(t, snap.History, 2)

	reloaded := openFile(t, path)
	assert.Equal(t, []string{"b"}, reloaded.Keys())
	assert.Equal(t, "", reloaded.Model("a", provider.Claude))
}

func TestBuildPromptDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	s := openFile(t, filepath.Join(t.TempDir(), "sessions.json"), WithSystemPrompt("  Be brief. "))
	s.AppendExchange(ctx, "k", "hi", "hello")

	prompt := s.BuildPrompt("k", "next")
	assert.Equal(t, []provider.Message{
		{Role: provider.RoleSystem, Content: "Be brief."},
		{Role: provider.RoleUser, Content: "hi"},
		{Role: provider.RoleAssistant, Content: "hello"},
		{Role: provider.RoleUser, Content: "next"},
	}, prompt)

	prompt[1].Content = "changed"
	snap, _ := s.Snapshot("k")
	assert.Len(t, snap.History, 2)
	assert.Equal(t, "hi", snap.History[0].Content)
}

func TestMalformedFileStartsEmpty(t *testing.T) {
	logs := captureLogs(t)
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := openFile(t, path)
	assert.Equal(t, 0, s.SessionCount())
	assert.Contains(t, logs.String(), "load_malformed")

	// the next mutation replaces the bad file
	require.NoError(t, s.SetProvider(context.Background(), "k", provider.Codex))
	assert.Equal(t, 1, openFile(t, path).SessionCount())
}

type failingBackend struct{ store.Backend }

func (failingBackend) Load(context.Context) ([]byte, error) { return nil, store.ErrNotFound }
func (failingBackend) Save(context.Context, []byte) error   { return errors.New("disk full") }
func (failingBackend) Location() string                     { return "nowhere" }

func TestPersistFailureIsNotFatal(t *testing.T) {
	logs := captureLogs(t)
	m := metrics.New()
	s := Open(context.Background(), failingBackend{}, WithMetrics(m))

	require.NoError(t, s.SetProvider(context.Background(), "k", provider.Codex))
	assert.Equal(t, provider.Codex, s.Provider("k"))
	assert.Equal(t, int64(1), m.StoreWriteErrors.Load())
	assert.True(t, strings.Contains(logs.String(), "persist_failed"))
}

func TestSQLiteBackedStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	b, err := store.NewSQLiteBackend(path)
	require.NoError(t, err)
	s := Open(ctx, b, WithMetrics(metrics.New()))
	s.AppendExchange(ctx, "k", "hi", "hello")
	require.NoError(t, s.Close())

	b2, err := store.NewSQLiteBackend(path)
	require.NoError(t, err)
	reloaded := Open(ctx, b2, WithMetrics(metrics.New()))
	defer reloaded.Close()
	snap, ok := reloaded.Snapshot("k")
	require.True(t, ok)
	assert.Len(t, snap.History, 2)
}

func TestKeysMatching(t *testing.T) {
	ctx := context.Background()
	s := openFile(t, filepath.Join(t.TempDir(), "sessions.json"))
	for _, k := range []string{"tg:2", "console:alice", "tg:1", "console:bob"} {
		require.NoError(t, s.SetProvider(ctx, k, provider.Claude))
	}

	got, err := s.KeysMatching("tg:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"tg:1", "tg:2"}, got)

	got, err = s.KeysMatching("console:{bob,carol}")
	require.NoError(t, err)
	assert.Equal(t, []string{"console:bob"}, got)

	got, err = s.KeysMatching("irc:*")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.KeysMatching("tg:[")
	assert.Error(t, err)
}
