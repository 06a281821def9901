// Package exec runs provider subprocesses and streams their stdout line by line.
// Inject an Executor instead of calling os/exec directly so adapters can be tested
// against scripted output.
package exec

import (
	"context"
	"fmt"
)

// Command describes one subprocess invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string // appended to the parent environment
	Input string   // written to stdin, then stdin is closed
}

func (c Command) String() string {
	return fmt.Sprintf("%s %v", c.Name, c.Args)
}

// ProcessResult is reported once the process has exited.
// The executor never interprets ExitCode; that is the caller's policy.
type ProcessResult struct {
	ExitCode   int
	Signal     string // set when the process was terminated by a signal
	StderrTail string // last StderrTailBytes of stderr
}

// LineHandler receives one complete stdout line. The next line is not delivered
// until the handler returns. A non-nil error terminates the process.
type LineHandler func(ctx context.Context, line string) error

// Executor streams a command's stdout to a LineHandler.
type Executor interface {
	Stream(ctx context.Context, cmd Command, handle LineHandler, opts ...Option) (ProcessResult, error)
}

// SpawnError means the process could not be started at all.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// DefaultStderrTailBytes bounds the retained stderr.
const DefaultStderrTailBytes = 8 * 1024

type options struct {
	stderrTailBytes int
	onStderrLine    func(line string)
}

// Option configures a single Stream call.
type Option func(*options)

// WithStderrTail sets how many trailing stderr bytes are kept.
func WithStderrTail(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.stderrTailBytes = n
		}
	}
}

// WithStderrObserver streams complete stderr lines to fn as they arrive.
func WithStderrObserver(fn func(line string)) Option {
	return func(o *options) { o.onStderrLine = fn }
}

func newOptions(opts []Option) options {
	o := options{stderrTailBytes: DefaultStderrTailBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
