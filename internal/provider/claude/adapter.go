// Package claude adapts the Claude Code CLI (stream-json output) to the
// provider streaming contract.
package claude

import (
	"context"

	"github.com/joss/clibridge/internal/exec"
	"github.com/joss/clibridge/internal/provider"
)

const adapterName = "Claude Code"

// Config holds the subprocess settings.
type Config struct {
	Bin       string
	WorkDir   string
	ExtraArgs []string
	Env       []string
}

// Adapter implements provider.Adapter for the Claude Code CLI.
type Adapter struct {
	cfg  Config
	exec exec.Executor
}

// New creates a Claude adapter running through x.
func New(cfg Config, x exec.Executor) *Adapter {
	if cfg.Bin == "" {
		cfg.Bin = "claude"
	}
	return &Adapter{cfg: cfg, exec: x}
}

// ID returns the provider identifier.
func (a *Adapter) ID() string { return provider.Claude }

// Name returns the human-readable provider name.
func (a *Adapter) Name() string { return adapterName }

// SupportsReasoningEffort reports false; the CLI has no effort flag.
func (a *Adapter) SupportsReasoningEffort() bool { return false }

// Args builds the argument list for one invocation.
func (a *Adapter) Args(opts provider.Options) []string {
	args := []string{
		"-p",
		"--output-format", "stream-json",
		"--verbose",
		"--include-partial-messages",
	}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	return append(args, a.cfg.ExtraArgs...)
}

// Stream runs one turn. A non-zero exit is always fatal for this provider.
func (a *Adapter) Stream(ctx context.Context, history []provider.Message, cb provider.Callbacks, opts provider.Options) (string, error) {
	cmd := exec.Command{
		Name:  a.cfg.Bin,
		Args:  a.Args(opts),
		Dir:   a.cfg.WorkDir,
		Env:   a.cfg.Env,
		Input: provider.RenderTranscript(history),
	}
	return provider.Drive(ctx, a.exec, provider.Claude, cmd, NewParser(), cb, provider.ExitPolicy{})
}
