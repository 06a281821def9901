package exec

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Script is one canned process run for ScriptedExecutor.
type Script struct {
	Lines    []string
	Stderr   string
	ExitCode int
	Signal   string
	SpawnErr error

	// LineDelay is slept before each line.
	LineDelay time.Duration

	// Hold, when set, blocks process exit until closed or the context ends.
	Hold <-chan struct{}
}

// ScriptedExecutor implements Executor for testing by replaying Scripts.
// Calls are consumed in order; the last script repeats once exhausted.
type ScriptedExecutor struct {
	mu      sync.Mutex
	scripts []Script
	next    int

	// Calls records all command invocations
	Calls []Command
}

// NewScriptedExecutor creates a scripted executor.
func NewScriptedExecutor(scripts ...Script) *ScriptedExecutor {
	return &ScriptedExecutor{scripts: scripts}
}

// LastCall returns the most recent invocation.
func (s *ScriptedExecutor) LastCall() Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Calls) == 0 {
		return Command{}
	}
	return s.Calls[len(s.Calls)-1]
}

// CallCount returns the number of Stream invocations.
func (s *ScriptedExecutor) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

func (s *ScriptedExecutor) take(c Command) Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, c)
	if len(s.scripts) == 0 {
		return Script{}
	}
	sc := s.scripts[s.next]
	if s.next < len(s.scripts)-1 {
		s.next++
	}
	return sc
}

// Stream replays the next script through handle.
func (s *ScriptedExecutor) Stream(ctx context.Context, c Command, handle LineHandler, opts ...Option) (ProcessResult, error) {
	o := newOptions(opts)
	sc := s.take(c)
	if sc.SpawnErr != nil {
		return ProcessResult{ExitCode: -1}, &SpawnError{Name: c.Name, Err: sc.SpawnErr}
	}

	tail := newTailBuffer(o.stderrTailBytes, o.onStderrLine)
	_, _ = tail.Write([]byte(sc.Stderr))
	tail.flush()
	killed := ProcessResult{ExitCode: -1, Signal: "killed", StderrTail: tail.String()}

	for _, line := range sc.Lines {
		if sc.LineDelay > 0 {
			select {
			case <-time.After(sc.LineDelay):
			case <-ctx.Done():
				return killed, fmt.Errorf("%s: %w", c.Name, ctx.Err())
			}
		}
		if err := handle(ctx, line); err != nil {
			return killed, err
		}
	}

	if sc.Hold != nil {
		select {
		case <-sc.Hold:
		case <-ctx.Done():
			return killed, fmt.Errorf("%s: %w", c.Name, ctx.Err())
		}
	}

	return ProcessResult{ExitCode: sc.ExitCode, Signal: sc.Signal, StderrTail: tail.String()}, nil
}
