package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/joss/clibridge/internal/coalesce"
	"github.com/joss/clibridge/internal/logging"
	"github.com/joss/clibridge/internal/provider"
)

const (
	placeholder  = "⏳ thinking…"
	statusPrefix = "⏳ "
	errorPrefix  = "⚠️ "
)

// LiveReply is one bot message that is edited in place as a provider streams.
// Edits go through a coalescer so the platform sees at most one edit per
// interval, and the final text is always delivered.
type LiveReply struct {
	platform Platform
	ref      MessageRef
	coal     *coalesce.Coalescer
	log      *logging.Logger

	mu     sync.Mutex
	status string
	text   string
}

// StartReply sends the placeholder message and returns its live handle.
func StartReply(ctx context.Context, p Platform, conversation string, interval time.Duration) (*LiveReply, error) {
	ref, err := p.Send(ctx, conversation, placeholder, FormatPlain)
	if err != nil {
		return nil, err
	}
	r := &LiveReply{
		platform: p,
		ref:      ref,
		log:      logging.FromContext(ctx, "chat").WithConversation(conversation),
	}
	r.coal = coalesce.New(ctx, r.edit, interval, coalesce.WithLogger(r.log))
	return r, nil
}

// Ref returns the message being edited.
func (r *LiveReply) Ref() MessageRef { return r.ref }

// Callbacks adapts the reply to the provider streaming contract.
func (r *LiveReply) Callbacks() provider.Callbacks {
	return provider.Callbacks{
		OnStatus: func(ctx context.Context, status string) error {
			r.mu.Lock()
			r.status = status
			view := r.render()
			r.mu.Unlock()
			r.coal.Queue(view)
			return nil
		},
		OnText: func(ctx context.Context, text string) error {
			r.mu.Lock()
			r.text = text
			view := r.render()
			r.mu.Unlock()
			r.coal.Queue(view)
			return nil
		},
		OnDone: func(ctx context.Context, text string) error {
			return r.finish(ctx, text)
		},
		OnError: func(ctx context.Context, message string) error {
			return r.finish(ctx, errorPrefix+message)
		},
	}
}

// render builds the in-progress view. Callers hold r.mu.
func (r *LiveReply) render() string {
	if r.text != "" {
		return r.text
	}
	if r.status != "" {
		return statusPrefix + r.status
	}
	return placeholder
}

func (r *LiveReply) finish(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		text = errorPrefix + provider.ErrEmptyReply.Error()
	}
	// a failed final edit must not fail the request; it is logged by the coalescer
	_ = r.coal.Flush(ctx, text)
	return nil
}

// edit applies one view, degrading rich text to plain on rejection and
// ignoring no-op edits.
func (r *LiveReply) edit(ctx context.Context, text string) error {
	text = Truncate(text, r.platform.Limit())
	err := r.platform.Edit(ctx, r.ref, text, FormatRich)
	if errors.Is(err, ErrFormatRejected) {
		r.log.Debug("format_rejected", nil)
		err = r.platform.Edit(ctx, r.ref, text, FormatPlain)
	}
	if errors.Is(err, ErrNotModified) {
		return nil
	}
	return err
}
