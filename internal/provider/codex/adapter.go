// Package codex adapts the Codex CLI (`exec --json`) to the provider
// streaming contract.
package codex

import (
	"context"
	"fmt"

	"github.com/joss/clibridge/internal/exec"
	"github.com/joss/clibridge/internal/provider"
)

const adapterName = "Codex"

// Config holds the subprocess settings.
type Config struct {
	Bin       string
	WorkDir   string
	ExtraArgs []string
	Env       []string
}

// Adapter implements provider.Adapter for the Codex CLI.
type Adapter struct {
	cfg  Config
	exec exec.Executor
}

// New creates a Codex adapter running through x.
func New(cfg Config, x exec.Executor) *Adapter {
	if cfg.Bin == "" {
		cfg.Bin = "codex"
	}
	return &Adapter{cfg: cfg, exec: x}
}

func (a *Adapter) ID() string                    { return provider.Codex }
func (a *Adapter) Name() string                  { return adapterName }
func (a *Adapter) SupportsReasoningEffort() bool { return true }

// Args builds the argument list. The prompt is read from stdin ("-").
func (a *Adapter) Args(opts provider.Options) []string {
	args := []string{"exec", "--json", "--skip-git-repo-check"}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.ReasoningEffort != "" {
		args = append(args, "-c", fmt.Sprintf("model_reasoning_effort=%q", opts.ReasoningEffort))
	}
	args = append(args, a.cfg.ExtraArgs...)
	return append(args, "-")
}

// Stream runs one turn. The CLI sometimes exits non-zero after delivering a
// complete answer; that is tolerated when a reply was captured.
func (a *Adapter) Stream(ctx context.Context, history []provider.Message, cb provider.Callbacks, opts provider.Options) (string, error) {
	cmd := exec.Command{
		Name:  a.cfg.Bin,
		Args:  a.Args(opts),
		Dir:   a.cfg.WorkDir,
		Env:   a.cfg.Env,
		Input: provider.RenderTranscript(history),
	}
	return provider.Drive(ctx, a.exec, provider.Codex, cmd, NewParser(), cb, provider.ExitPolicy{TolerateFailureWithReply: true})
}
