package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/clibridge/internal/logging"
)

// CommandFunc runs a command with a wired app.
type CommandFunc func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error

// CommandConfig holds configuration for creating standardized commands.
type CommandConfig struct {
	Use     string
	Short   string
	Long    string
	Args    cobra.PositionalArgs
	Example string
	Aliases []string
	RunFunc CommandFunc
}

// newCommand creates a command that opens the bridge, runs with a context
// cancelled on SIGINT/SIGTERM, and logs its outcome.
func newCommand(cfg CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:     cfg.Use,
		Short:   cfg.Short,
		Long:    cfg.Long,
		Args:    cfg.Args,
		Example: cfg.Example,
		Aliases: cfg.Aliases,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			start := time.Now()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			err = cfg.RunFunc(ctx, a, cmd, args)
			logging.New("cli").Debug("command", map[string]interface{}{
				"command":     cmd.CommandPath(),
				"duration_ms": time.Since(start).Milliseconds(),
				"ok":          err == nil,
			})
			return err
		},
	}
}
