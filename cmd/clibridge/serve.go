package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/joss/clibridge/internal/chat"
	"github.com/joss/clibridge/internal/logging"
)

func serveCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:   "serve",
		Short: "Serve the JSON-lines chat protocol on stdin/stdout",
		Long: `Read chat messages as JSON lines from stdin and write send/edit
events as JSON lines to stdout. Conversations are handled concurrently;
messages within one conversation are answered in arrival order.

Input:  {"conversation":"c1","user":"alice","text":"hello"}
Output: {"type":"send","conversation":"c1","id":"...","text":"⏳ thinking…","format":"rich"}`,
		Args: cobra.NoArgs,
		RunFunc: func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			a.serveMetrics(ctx)

			stdio := chat.NewStdioPlatform(os.Stdin, os.Stdout, a.env.MessageLimit)
			router := chat.NewRouter(a.orch, stdio, a.env.EditInterval)

			log := logging.New("serve")
			log.Info("started", map[string]interface{}{
				"providers": a.registry.Available(),
				"store":     a.backend.Location(),
			})
			err := chat.Serve(ctx, stdio, router, chat.ServeOptions{})
			log.Info("stopped", map[string]interface{}{"sessions": a.sessions.SessionCount()})
			return err
		},
	})
}
