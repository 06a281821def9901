// Package main provides the clibridge CLI entrypoint.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joss/clibridge/internal/logging"
)

var (
	version = "0.1.0"
	pretty  = true
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clibridge",
		Short: "Bridge chat conversations to local AI coding CLIs",
		Long: `clibridge: drive Claude Code and Codex from a chat.

Usage modes:
  clibridge chat     Interactive terminal chat
  clibridge tui      Full-screen chat
  clibridge serve    JSON-lines chat protocol on stdin/stdout
  clibridge ask      One-shot question, reply streamed to stdout

Configuration comes from CLIBRIDGE_* environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				logging.SetLevel(logging.ParseLevel(lvl))
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Pretty print output")
	rootCmd.PersistentFlags().String("log-level", "", "Minimum log level (debug, info, warn, error)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "chat", Title: "Chat:"},
		&cobra.Group{ID: "state", Title: "State:"},
	)

	for _, c := range []*cobra.Command{chatCmd(), tuiCmd(), serveCmd(), askCmd()} {
		c.GroupID = "chat"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{sessionCmd(), providersCmd()} {
		c.GroupID = "state"
		rootCmd.AddCommand(c)
	}

	if err := rootCmd.Execute(); err != nil {
		exitOnError(err)
	}
	os.Exit(0)
}
