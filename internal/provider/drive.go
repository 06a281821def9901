package provider

import (
	"context"
	"strings"

	"github.com/joss/clibridge/internal/exec"
	"github.com/joss/clibridge/internal/logging"
)

// LineParser classifies raw JSONL lines of one provider vocabulary.
// Implementations keep their own running-reply state and return no events
// once a terminal event was produced.
type LineParser interface {
	Feed(line string) []StreamEvent
}

// ExitPolicy decides how a finished process is judged.
type ExitPolicy struct {
	// TolerateFailureWithReply accepts a non-zero exit when a non-empty reply
	// was already produced.
	TolerateFailureWithReply bool
}

// Drive runs cmd through x, classifying every stdout line with p and
// reporting through cb. It returns the final reply or a classified error.
func Drive(ctx context.Context, x exec.Executor, id string, cmd exec.Command, p LineParser, cb Callbacks, policy ExitPolicy) (string, error) {
	log := logging.FromContext(ctx, "provider").WithProvider(id)
	turn := NewTurn(id, cb)

	handle := func(ctx context.Context, line string) error {
		for _, ev := range p.Feed(line) {
			if err := turn.Apply(ctx, ev); err != nil {
				return err
			}
		}
		return nil
	}

	res, err := x.Stream(ctx, cmd, handle, exec.WithStderrObserver(func(line string) {
		log.Debug("stderr", map[string]interface{}{"line": line})
	}))
	if err != nil {
		turn.Fail(ctx, err)
		return "", err
	}

	reply := turn.Reply()
	hasReply := strings.TrimSpace(reply) != ""

	if res.ExitCode != 0 || res.Signal != "" {
		if policy.TolerateFailureWithReply && hasReply {
			log.Warn("nonzero_exit_tolerated", map[string]interface{}{
				"exit_code": res.ExitCode,
				"signal":    res.Signal,
				"stderr":    LastMeaningfulLine(res.StderrTail),
			}, nil)
		} else {
			exitErr := &ExitError{
				Provider: id,
				Code:     res.ExitCode,
				Signal:   res.Signal,
				Message:  ExtractErrorMessage("", res.StderrTail),
			}
			if exitErr.Message == "unknown error" {
				exitErr.Message = ""
			}
			turn.Fail(ctx, exitErr)
			return "", exitErr
		}
	}

	if !hasReply {
		turn.Fail(ctx, ErrEmptyReply)
		return "", ErrEmptyReply
	}

	if err := turn.Finish(ctx, reply); err != nil {
		return "", err
	}
	return reply, nil
}
