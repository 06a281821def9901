package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/joss/clibridge/internal/provider"
)

// exitOnError prints a one-line description of err and exits.
func exitOnError(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("Error: %s", provider.Describe(err)))
	os.Exit(1)
}

// readPrompt returns the joined args, or stdin when there are none (or "-")
// and stdin is not a terminal.
func readPrompt(args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text != "" && text != "-" {
		return text, nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no prompt given")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text = strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no prompt given")
	}
	return text, nil
}

// defaultConversation is the key used by the terminal commands.
func defaultConversation() string {
	if u := os.Getenv("USER"); u != "" {
		return "console:" + u
	}
	return "console"
}
