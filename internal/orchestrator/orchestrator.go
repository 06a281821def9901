// Package orchestrator runs one conversation turn end to end: it serializes
// requests per conversation, resolves the provider, builds the prompt, streams
// the provider and records the exchange.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/joss/clibridge/internal/logging"
	"github.com/joss/clibridge/internal/metrics"
	"github.com/joss/clibridge/internal/provider"
	"github.com/joss/clibridge/internal/session"
)

// Result is the outcome of a successful AskStream.
type Result struct {
	Provider string
	Reply    string
}

// Orchestrator coordinates providers and sessions.
type Orchestrator struct {
	registry *provider.Registry
	sessions *session.Store
	queue    *KeyedQueue
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout bounds each provider invocation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithMetrics records requests on m instead of the global metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an Orchestrator.
func New(registry *provider.Registry, sessions *session.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		sessions: sessions,
		queue:    NewKeyedQueue(),
		metrics:  metrics.Global(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sessions returns the session store.
func (o *Orchestrator) Sessions() *session.Store { return o.sessions }

// Registry returns the provider registry.
func (o *Orchestrator) Registry() *provider.Registry { return o.registry }

// Pending returns the number of conversations with a request running or queued.
func (o *Orchestrator) Pending() int { return o.queue.Len() }

// WithConversation runs fn while holding key's slot, so it never overlaps a
// request or another WithConversation call on the same conversation.
func (o *Orchestrator) WithConversation(ctx context.Context, key string, fn func(context.Context) error) error {
	release, err := o.queue.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("wait for conversation: %w", err)
	}
	defer release()
	return fn(ctx)
}

// AskStream sends text to the conversation's provider, streaming progress
// through cb. Requests for the same key run one at a time in arrival order.
// Exactly one of cb.OnDone or cb.OnError fires. History is only updated on
// success.
func (o *Orchestrator) AskStream(ctx context.Context, key, text string, cb provider.Callbacks) (Result, error) {
	start := time.Now()
	ctx = logging.WithRequestID(ctx, logging.NewRequestID())
	log := logging.FromContext(ctx, "orchestrator").WithConversation(key)

	release, err := o.queue.Acquire(ctx, key)
	if err != nil {
		return Result{}, o.fail(ctx, cb, start, fmt.Errorf("wait for conversation: %w", err))
	}
	defer release()

	adapter, err := o.resolve(ctx, key)
	if err != nil {
		return Result{}, o.fail(ctx, cb, start, err)
	}
	id := adapter.ID()
	log = log.WithProvider(id)

	opts := provider.Options{Model: o.sessions.Model(key, id)}
	if adapter.SupportsReasoningEffort() {
		opts.ReasoningEffort = o.sessions.Effort(key, id)
	}
	prompt := o.sessions.BuildPrompt(key, text)

	runCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	log.Info("ask_started", map[string]interface{}{
		"model":    opts.Model,
		"effort":   opts.ReasoningEffort,
		"messages": len(prompt),
	})
	reply, err := adapter.Stream(runCtx, prompt, cb, opts)
	o.metrics.RecordAsk(err == nil, time.Since(start))
	log.TimedEvent("ask_finished", start, map[string]interface{}{"reply_length": len(reply)}, err)
	if err != nil {
		// the adapter already reported through cb
		return Result{Provider: id}, fmt.Errorf("%s: %w", id, err)
	}

	o.sessions.AppendExchange(ctx, key, text, reply)
	return Result{Provider: id, Reply: reply}, nil
}

// fail reports a failure that happened before any adapter ran.
func (o *Orchestrator) fail(ctx context.Context, cb provider.Callbacks, start time.Time, err error) error {
	o.metrics.RecordAsk(false, time.Since(start))
	logging.FromContext(ctx, "orchestrator").Warn("ask_rejected", nil, err)
	if cb.OnError != nil {
		_ = cb.OnError(ctx, provider.Describe(err))
	}
	return err
}

// resolve returns the active adapter for key, falling back to (and persisting)
// the first configured provider when the stored one is unavailable.
func (o *Orchestrator) resolve(ctx context.Context, key string) (provider.Adapter, error) {
	available := o.registry.Available()
	if len(available) == 0 {
		return nil, provider.Configf("no providers configured")
	}

	id := o.sessions.Provider(key)
	if a, ok := o.registry.Get(id); ok {
		return a, nil
	}

	fallback := available[0]
	logging.FromContext(ctx, "orchestrator").WithConversation(key).Warn("provider_fallback", map[string]interface{}{
		"stored":   id,
		"fallback": fallback,
	}, nil)
	if err := o.sessions.SetProvider(ctx, key, fallback); err != nil {
		return nil, err
	}
	a, _ := o.registry.Get(fallback)
	return a, nil
}
