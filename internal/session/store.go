package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sahilm/fuzzy"

	"github.com/joss/clibridge/internal/logging"
	"github.com/joss/clibridge/internal/metrics"
	"github.com/joss/clibridge/internal/provider"
	"github.com/joss/clibridge/internal/store"
)

// Option configures a Store.
type Option func(*Store)

// WithProviders sets the accepted provider ids. The first is the default for
// new sessions.
func WithProviders(ids ...string) Option {
	return func(s *Store) {
		s.providers = append([]string(nil), ids...)
	}
}

// WithMaxHistory bounds the stored history length.
func WithMaxHistory(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithSystemPrompt sets the system message BuildPrompt prepends.
func WithSystemPrompt(prompt string) Option {
	return func(s *Store) {
		s.systemPrompt = strings.TrimSpace(prompt)
	}
}

// WithMetrics records persistence outcomes on m instead of the global metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Store holds all sessions in memory and writes the full set to its backend
// after every mutation. Persistence failures are logged, never returned.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	backend      store.Backend
	providers    []string
	maxHistory   int
	systemPrompt string
	metrics      *metrics.Metrics
	log          *logging.Logger
	now          func() time.Time
}

// Open creates a store over backend and loads the persisted document. A
// missing or unreadable document yields an empty store.
func Open(ctx context.Context, backend store.Backend, opts ...Option) *Store {
	s := &Store{
		sessions:   make(map[string]*Session),
		backend:    backend,
		providers:  []string{provider.Claude, provider.Codex},
		maxHistory: DefaultMaxHistory,
		metrics:    metrics.Global(),
		log:        logging.New("session"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	if s.backend == nil {
		return
	}
	data, err := s.backend.Load(ctx)
	if store.IsNotFound(err) {
		return
	}
	if err != nil {
		s.log.Warn("load_failed", map[string]interface{}{"location": s.backend.Location()}, err)
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("load_malformed", map[string]interface{}{"location": s.backend.Location()}, err)
		return
	}
	if doc.Version > DocumentVersion {
		s.log.Warn("load_newer_version", map[string]interface{}{"version": doc.Version}, nil)
	}
	for key, sess := range doc.Sessions {
		if sess == nil {
			continue
		}
		sess.History = trimHistory(sess.History, s.maxHistory)
		s.sessions[key] = sess
	}
	s.log.Debug("loaded", map[string]interface{}{"sessions": len(s.sessions)})
}

// persist writes the whole store. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) {
	if s.backend == nil {
		return
	}
	doc := document{
		Version:   DocumentVersion,
		UpdatedAt: s.now().UTC(),
		Sessions:  s.sessions,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err == nil {
		err = s.backend.Save(ctx, data)
	}
	s.metrics.RecordStoreWrite(err == nil)
	if err != nil {
		s.log.Warn("persist_failed", map[string]interface{}{"location": s.backend.Location()}, err)
	}
}

// session returns the session for key, creating it on first access.
func (s *Store) session(key string) *Session {
	sess, ok := s.sessions[key]
	if !ok {
		sess = &Session{Provider: s.defaultProvider(), UpdatedAt: s.now().UTC()}
		s.sessions[key] = sess
	}
	return sess
}

// lookup returns the session for key, or an unsaved one with defaults.
// Callers hold s.mu and must not mutate the result.
func (s *Store) lookup(key string) *Session {
	if sess, ok := s.sessions[key]; ok {
		return sess
	}
	return &Session{Provider: s.defaultProvider()}
}

func (s *Store) touch(sess *Session) {
	sess.UpdatedAt = s.now().UTC()
}

func (s *Store) defaultProvider() string {
	if len(s.providers) == 0 {
		return ""
	}
	return s.providers[0]
}

func (s *Store) known(id string) bool {
	for _, p := range s.providers {
		if p == id {
			return true
		}
	}
	return false
}

// checkProvider rejects ids outside the configured set, suggesting the
// closest match.
func (s *Store) checkProvider(id string) error {
	if s.known(id) {
		return nil
	}
	msg := fmt.Sprintf("unknown provider %q", id)
	if matches := fuzzy.Find(id, s.providers); len(matches) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", matches[0].Str)
	}
	if len(s.providers) > 0 {
		msg += "; available: " + strings.Join(s.providers, ", ")
	}
	return &provider.ConfigError{Message: msg}
}

// Providers returns the accepted provider ids.
func (s *Store) Providers() []string {
	return append([]string(nil), s.providers...)
}

// Provider returns the active provider for key.
func (s *Store) Provider(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(key).Provider
}

// SetProvider selects the active provider for key.
func (s *Store) SetProvider(ctx context.Context, key, id string) error {
	id = strings.ToLower(strings.TrimSpace(id))
	if err := s.checkProvider(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(key)
	sess.Provider = id
	s.touch(sess)
	s.persist(ctx)
	return nil
}

// Model returns the model override of providerID for key, or "" for the
// provider default.
func (s *Store) Model(key, providerID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(key).Models[providerID]
}

// SetModel sets or, for blank/"default", clears the model override.
func (s *Store) SetModel(ctx context.Context, key, providerID, model string) error {
	if err := s.checkProvider(providerID); err != nil {
		return err
	}
	model = strings.TrimSpace(model)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(key)
	sess.Models = setOverride(sess.Models, providerID, model)
	s.touch(sess)
	s.persist(ctx)
	return nil
}

// Effort returns the reasoning-effort override of providerID for key.
func (s *Store) Effort(key, providerID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(key).Efforts[providerID]
}

// SetEffort sets or clears the reasoning-effort override. Values outside
// provider.ReasoningEfforts are rejected.
func (s *Store) SetEffort(ctx context.Context, key, providerID, effort string) error {
	if err := s.checkProvider(providerID); err != nil {
		return err
	}
	effort = strings.ToLower(strings.TrimSpace(effort))
	if !provider.IsDefault(effort) && !provider.ValidEffort(effort) {
		return provider.Configf("invalid reasoning effort %q (want one of: %s, or default)",
			effort, strings.Join(provider.ReasoningEfforts, ", "))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(key)
	sess.Efforts = setOverride(sess.Efforts, providerID, effort)
	s.touch(sess)
	s.persist(ctx)
	return nil
}

func setOverride(m map[string]string, providerID, value string) map[string]string {
	if provider.IsDefault(value) {
		delete(m, providerID)
		if len(m) == 0 {
			return nil
		}
		return m
	}
	if m == nil {
		m = make(map[string]string)
	}
	m[providerID] = value
	return m
}

// Reset deletes the session for key. It reports whether one existed.
func (s *Store) Reset(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; !ok {
		return false
	}
	delete(s.sessions, key)
	s.persist(ctx)
	return true
}

// AppendExchange records a completed user/assistant exchange.
func (s *Store) AppendExchange(ctx context.Context, key, userText, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(key)
	history := append(sess.History,
		provider.Message{Role: provider.RoleUser, Content: userText},
		provider.Message{Role: provider.RoleAssistant, Content: reply},
	)
	sess.History = trimHistory(history, s.maxHistory)
	s.touch(sess)
	s.persist(ctx)
}

// BuildPrompt returns the system prompt (if any), the stored history and the
// new user message. Stored history is not modified.
func (s *Store) BuildPrompt(key, userText string) []provider.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.lookup(key)

	msgs := make([]provider.Message, 0, len(sess.History)+2)
	if s.systemPrompt != "" {
		msgs = append(msgs, provider.Message{Role: provider.RoleSystem, Content: s.systemPrompt})
	}
	msgs = append(msgs, sess.History...)
	return append(msgs, provider.Message{Role: provider.RoleUser, Content: userText})
}

// SessionCount returns the number of sessions held.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Snapshot returns a copy of the session for key without creating it.
func (s *Store) Snapshot(key string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return Session{}, false
	}
	return sess.clone(), true
}

// Keys returns all conversation keys, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KeysMatching returns the sorted keys that match a glob pattern such as
// "tg:*" or "console:{alice,bob}".
func (s *Store) KeysMatching(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	var out []string
	for _, k := range s.Keys() {
		if ok, _ := doublestar.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	return out, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
