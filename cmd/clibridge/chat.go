package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joss/clibridge/internal/chat"
)

func chatCmd() *cobra.Command {
	var conversation string

	cmd := newCommand(CommandConfig{
		Use:   "chat",
		Short: "Interactive chat in the terminal",
		Long: `Start an interactive chat. Each line is sent to the active provider
and the reply is streamed in place. Lines starting with / are commands;
type /help for the list.`,
		Args: cobra.NoArgs,
		RunFunc: func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			console := chat.NewConsolePlatform(conversation, os.Stdin, os.Stdout, a.env.MessageLimit)
			router := chat.NewRouter(a.orch, console, a.env.EditInterval)

			if pretty {
				fmt.Println(color.HiBlackString("clibridge %s · provider %s · /help for commands",
					version, a.sessions.Provider(conversation)))
			}
			return chat.Serve(ctx, console, router, chat.ServeOptions{Sequential: true})
		},
	})
	cmd.Flags().StringVarP(&conversation, "conversation", "c", defaultConversation(), "Conversation key")
	return cmd
}
