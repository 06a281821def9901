package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joss/clibridge/internal/chat"
	"github.com/joss/clibridge/internal/logging"
	"github.com/joss/clibridge/internal/tui"
)

func tuiCmd() *cobra.Command {
	var conversation string

	cmd := newCommand(CommandConfig{
		Use:   "tui",
		Short: "Full-screen chat interface",
		Long: `Open a full-screen chat. Replies stream into the transcript as the
provider works; the same /commands as the chat command are available.`,
		Args: cobra.NoArgs,
		RunFunc: func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			// logs would draw over the alternate screen
			logFile, err := os.OpenFile(a.logPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logFile.Close()
			defer logging.SetOutput(logging.SetOutput(logFile))

			user := os.Getenv("USER")
			if user == "" {
				user = "you"
			}
			screen := tui.NewPlatform(conversation, user, a.env.MessageLimit)
			router := chat.NewRouter(a.orch, screen, a.env.EditInterval)
			title := fmt.Sprintf("%s · %s", conversation, a.sessions.Provider(conversation))
			return screen.Run(ctx, title, router)
		},
	})
	cmd.Flags().StringVarP(&conversation, "conversation", "c", defaultConversation(), "Conversation key")
	return cmd
}
