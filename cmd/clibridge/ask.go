package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joss/clibridge/internal/provider"
)

// streamWriter prints reply snapshots as they grow and status lines to stderr.
type streamWriter struct {
	out     io.Writer
	status  io.Writer
	printed string
}

func (w *streamWriter) callbacks() provider.Callbacks {
	return provider.Callbacks{
		OnStatus: func(_ context.Context, text string) error {
			if pretty {
				fmt.Fprintln(w.status, color.HiBlackString("⏳ %s", text))
			}
			return nil
		},
		OnText: func(_ context.Context, text string) error {
			w.write(text)
			return nil
		},
		OnDone: func(_ context.Context, text string) error {
			w.write(text)
			if !strings.HasSuffix(w.printed, "\n") {
				fmt.Fprintln(w.out)
			}
			return nil
		},
	}
}

// write prints the part of text not yet shown. A snapshot that does not
// extend what was printed starts on a fresh line.
func (w *streamWriter) write(text string) {
	if strings.HasPrefix(text, w.printed) {
		fmt.Fprint(w.out, text[len(w.printed):])
	} else {
		fmt.Fprint(w.out, "\n"+text)
	}
	w.printed = text
}

func askCmd() *cobra.Command {
	var providerID, model, effort string

	cmd := newCommand(CommandConfig{
		Use:   "ask <conversation> [text...]",
		Short: "Ask one question and stream the reply",
		Long: `Send one message to the conversation's active provider and stream
the reply to stdout. Without text (or with "-") the prompt is read from stdin.
--provider, --model and --effort are saved on the conversation like the
matching chat commands.`,
		Args:    cobra.MinimumNArgs(1),
		Example: `  clibridge ask work "summarize the failing tests"
  git diff | clibridge ask review --provider codex --effort high`,
		RunFunc: func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			key := args[0]
			text, err := readPrompt(args[1:])
			if err != nil {
				return err
			}

			sessions := a.sessions
			if providerID != "" {
				if err := sessions.SetProvider(ctx, key, providerID); err != nil {
					return err
				}
			}
			active := sessions.Provider(key)
			if cmd.Flags().Changed("model") {
				if err := sessions.SetModel(ctx, key, active, model); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("effort") {
				if err := requireEffort(a, active); err != nil {
					return err
				}
				if err := sessions.SetEffort(ctx, key, active, effort); err != nil {
					return err
				}
			}

			w := &streamWriter{out: os.Stdout, status: os.Stderr}
			result, err := a.orch.AskStream(ctx, key, text, w.callbacks())
			if err != nil {
				return err
			}
			if pretty {
				fmt.Fprintln(os.Stderr, color.HiBlackString("— %s", result.Provider))
			}
			return nil
		},
	})
	cmd.Flags().StringVarP(&providerID, "provider", "p", "", "Switch the conversation to this provider first")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Set the model override (\"default\" clears it)")
	cmd.Flags().StringVarP(&effort, "effort", "e", "", "Set the reasoning effort override (\"default\" clears it)")
	return cmd
}
