package chat

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/joss/clibridge/internal/logging"
)

// Handler processes one inbound message.
type Handler interface {
	Handle(ctx context.Context, in Inbound) error
}

// ServeOptions controls Serve.
type ServeOptions struct {
	// Sequential handles each message before reading the next one. Otherwise
	// messages are handled concurrently; the orchestrator still serializes
	// each conversation.
	Sequential bool
}

// Serve reads from rx until EOF or ctx ends, passing each message to h.
// It waits for in-flight handlers before returning.
func Serve(ctx context.Context, rx Receiver, h Handler, opts ServeOptions) error {
	log := logging.New("chat")
	recovery := logging.NewRecoveryHandler("chat")
	var wg sync.WaitGroup
	defer wg.Wait()

	handle := func(in Inbound) {
		if err := h.Handle(ctx, in); err != nil {
			log.WithConversation(in.Conversation).Warn("handle_failed", nil, err)
		}
	}

	for {
		in, err := rx.Receive(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if opts.Sequential {
			recovery.Wrap(func() { handle(in) })
			continue
		}
		wg.Add(1)
		logging.SafeGo("chat", func() {
			defer wg.Done()
			handle(in)
		})
	}
}
