package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/clibridge/internal/provider"
	"github.com/joss/clibridge/internal/render"
	"github.com/joss/clibridge/internal/session"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Inspect and change stored conversations",
	}
	cmd.AddCommand(
		sessionListCmd(),
		sessionShowCmd(),
		sessionResetCmd(),
		sessionProviderCmd(),
		sessionModelCmd(),
		sessionEffortCmd(),
	)
	return cmd
}

func sessionListCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:     "list [pattern]",
		Aliases: []string{"ls"},
		Short:   "List stored conversations",
		Long: `List stored conversations, optionally only those whose key matches
a glob pattern.`,
		Args:    cobra.MaximumNArgs(1),
		Example: `  clibridge session list 'tg:*'`,
		RunFunc: func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			keys := a.sessions.Keys()
			if len(args) == 1 {
				var err error
				if keys, err = a.sessions.KeysMatching(args[0]); err != nil {
					return err
				}
			}
			all := make(map[string]session.Session, len(keys))
			for _, k := range keys {
				if s, ok := a.sessions.Snapshot(k); ok {
					all[k] = s
				}
			}
			fmt.Println(render.New(pretty).SessionList(all))
			return nil
		},
	})
}

func sessionShowCmd() *cobra.Command {
	var history bool
	var width int

	cmd := newCommand(CommandConfig{
		Use:   "show <conversation>",
		Short: "Show one conversation",
		Args:  cobra.ExactArgs(1),
		RunFunc: func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			key := args[0]
			s, ok := a.sessions.Snapshot(key)
			if !ok {
				s.Provider = a.sessions.Provider(key)
			}
			r := render.New(pretty)
			fmt.Println(r.Session(key, s))
			if history {
				fmt.Println()
				fmt.Println(r.History(s, width))
			}
			return nil
		},
	})
	cmd.Flags().BoolVar(&history, "history", false, "Print the stored messages")
	cmd.Flags().IntVar(&width, "width", 100, "Truncate each message to this many characters (0 for full text)")
	return cmd
}

func sessionResetCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:   "reset <conversation>",
		Short: "Forget a conversation",
		Args:  cobra.ExactArgs(1),
		RunFunc: func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if a.sessions.Reset(ctx, args[0]) {
				fmt.Println("conversation reset")
			} else {
				fmt.Println("nothing to reset")
			}
			return nil
		},
	})
}

func sessionProviderCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:   "provider <conversation> <id>",
		Short: "Set the active provider of a conversation",
		Args:  cobra.ExactArgs(2),
		RunFunc: func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if err := a.sessions.SetProvider(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("provider set to %s\n", a.sessions.Provider(args[0]))
			return nil
		},
	})
}

func sessionModelCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:   "model <conversation> <model|default>",
		Short: "Set the model override for the active provider",
		Args:  cobra.ExactArgs(2),
		RunFunc: func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			key := args[0]
			active := a.sessions.Provider(key)
			if err := a.sessions.SetModel(ctx, key, active, args[1]); err != nil {
				return err
			}
			fmt.Printf("%s model: %s\n", active, valueOrDefault(a.sessions.Model(key, active)))
			return nil
		},
	})
}

func sessionEffortCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:   "effort <conversation> <level|default>",
		Short: "Set the reasoning effort override for the active provider",
		Args:  cobra.ExactArgs(2),
		RunFunc: func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			key := args[0]
			active := a.sessions.Provider(key)
			if err := requireEffort(a, active); err != nil {
				return err
			}
			if err := a.sessions.SetEffort(ctx, key, active, args[1]); err != nil {
				return err
			}
			fmt.Printf("%s effort: %s\n", active, valueOrDefault(a.sessions.Effort(key, active)))
			return nil
		},
	})
}

// requireEffort fails when the provider does not accept an effort level.
func requireEffort(a *app, id string) error {
	adapter, ok := a.registry.Get(id)
	if !ok {
		return provider.Configf("provider %s is not configured", id)
	}
	if !adapter.SupportsReasoningEffort() {
		return provider.Configf("%s does not support reasoning effort", adapter.Name())
	}
	return nil
}

func valueOrDefault(v string) string {
	if v == "" {
		return "default"
	}
	return v
}
