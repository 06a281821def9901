// Package coalesce rate-limits a stream of full-text snapshots into a slower
// stream of publishes (chat message edits) while never losing the last value.
package coalesce

import (
	"context"
	"sync"
	"time"

	"github.com/joss/clibridge/internal/logging"
	"github.com/joss/clibridge/internal/metrics"
)

// PublishFunc applies one value, typically by editing a chat message.
type PublishFunc func(ctx context.Context, text string) error

type state int

const (
	stateIdle state = iota
	stateDraining
)

// Coalescer holds at most one pending value. Queued values replace the
// pending one; a background drain publishes it no sooner than MinInterval
// after the previous successful publish. Flush publishes a final value and
// disables further queueing.
type Coalescer struct {
	publish     PublishFunc
	minInterval time.Duration
	log         *logging.Logger
	metrics     *metrics.Metrics

	mu          sync.Mutex
	ctx         context.Context
	state       state
	pending     string
	hasPending  bool
	lastApplied string
	hasApplied  bool
	lastPublish time.Time
	drained     chan struct{}
	final       bool
}

// Option configures a Coalescer.
type Option func(*Coalescer)

// WithLogger sets the logger used for publish failures.
func WithLogger(l *logging.Logger) Option {
	return func(c *Coalescer) { c.log = l }
}

// WithMetrics records publishes on m instead of the global metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coalescer) { c.metrics = m }
}

// New creates a coalescer. ctx bounds the background drain.
func New(ctx context.Context, publish PublishFunc, minInterval time.Duration, opts ...Option) *Coalescer {
	c := &Coalescer{
		publish:     publish,
		minInterval: minInterval,
		log:         logging.New("coalesce"),
		metrics:     metrics.Global(),
		ctx:         ctx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Queue offers v for publishing. Values equal to the last applied one are
// skipped and only the latest pending value survives.
func (c *Coalescer) Queue(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.final {
		return
	}
	if c.hasApplied && v == c.lastApplied {
		c.pending, c.hasPending = "", false
		return
	}
	c.pending, c.hasPending = v, true
	if c.state == stateIdle {
		c.state = stateDraining
		c.drained = make(chan struct{})
		done := c.drained
		logging.SafeGo("coalesce", func() { c.drain(done) })
	}
}

// LastApplied returns the last successfully published value.
func (c *Coalescer) LastApplied() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastApplied, c.hasApplied
}

func (c *Coalescer) drain(done chan struct{}) {
	defer close(done)

	for {
		c.mu.Lock()
		if !c.hasPending {
			c.state = stateIdle
			c.mu.Unlock()
			return
		}
		wait := c.wait()
		c.mu.Unlock()

		if wait > 0 {
			select {
			case <-time.After(wait):
			case <-c.ctx.Done():
				c.mu.Lock()
				c.state = stateIdle
				c.mu.Unlock()
				return
			}
		}

		c.mu.Lock()
		if !c.hasPending {
			c.state = stateIdle
			c.mu.Unlock()
			return
		}
		v := c.pending
		c.pending, c.hasPending = "", false
		c.mu.Unlock()

		c.apply(c.ctx, v)
	}
}

// wait returns the remaining interval before the next publish. Callers hold c.mu.
func (c *Coalescer) wait() time.Duration {
	if c.lastPublish.IsZero() {
		return 0
	}
	return c.minInterval - time.Since(c.lastPublish)
}

func (c *Coalescer) apply(ctx context.Context, v string) error {
	err := c.publish(ctx, v)

	c.mu.Lock()
	if err == nil {
		c.lastPublish = time.Now()
		c.lastApplied, c.hasApplied = v, true
	}
	c.mu.Unlock()

	c.metrics.RecordPublish(err == nil)
	if err != nil {
		c.log.Warn("publish_failed", map[string]interface{}{"length": len(v)}, err)
	}
	return err
}

// Flush drops any pending value, waits for an in-flight drain to finish and
// then publishes v, even if it equals the last applied value. Queue is a
// no-op afterwards.
func (c *Coalescer) Flush(ctx context.Context, v string) error {
	c.mu.Lock()
	c.final = true
	c.pending, c.hasPending = "", false
	done := c.drained
	draining := c.state == stateDraining
	c.mu.Unlock()

	if draining {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	wait := c.wait()
	c.mu.Unlock()
	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.apply(ctx, v)
}
