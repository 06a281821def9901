package exec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"syscall"
	"time"

	"github.com/joss/clibridge/internal/logging"
	"github.com/joss/clibridge/internal/metrics"
)

const (
	initialLineBuffer = 1024 * 1024
	maxLineBuffer     = 16 * 1024 * 1024
)

// OSExecutor implements Executor using os/exec.
type OSExecutor struct {
	// WaitDelay bounds how long Wait blocks on inherited pipes after a kill.
	WaitDelay time.Duration
}

// NewOSExecutor creates a new OS-based executor.
func NewOSExecutor() *OSExecutor {
	return &OSExecutor{WaitDelay: 2 * time.Second}
}

// Stream starts cmd, feeds it cmd.Input and delivers stdout lines to handle
// strictly one at a time.
func (e *OSExecutor) Stream(ctx context.Context, c Command, handle LineHandler, opts ...Option) (ProcessResult, error) {
	o := newOptions(opts)
	log := logging.FromContext(ctx, "exec")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := osexec.CommandContext(runCtx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.WaitDelay = e.WaitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return ProcessResult{ExitCode: -1}, &SpawnError{Name: c.Name, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ProcessResult{ExitCode: -1}, &SpawnError{Name: c.Name, Err: err}
	}
	tail := newTailBuffer(o.stderrTailBytes, o.onStderrLine)
	cmd.Stderr = tail

	start := time.Now()
	if err := cmd.Start(); err != nil {
		metrics.Global().RecordSpawn(false)
		return ProcessResult{ExitCode: -1}, &SpawnError{Name: c.Name, Err: err}
	}
	metrics.Global().RecordSpawn(true)
	log.Debug("process_started", map[string]interface{}{"command": c.Name, "pid": cmd.Process.Pid})

	// children may write stdout before draining stdin
	go func() {
		_, _ = io.WriteString(stdin, c.Input)
		_ = stdin.Close()
	}()

	handlerErr := deliverLines(runCtx, stdout, handle)
	if handlerErr != nil {
		cancel()
	}

	waitErr := cmd.Wait()
	tail.flush()

	res := ProcessResult{ExitCode: -1, StderrTail: tail.String()}
	if ps := cmd.ProcessState; ps != nil {
		res.ExitCode = ps.ExitCode()
		if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			res.Signal = ws.Signal().String()
		}
	}

	log.TimedEvent("process_exit", start, map[string]interface{}{
		"command":   c.Name,
		"exit_code": res.ExitCode,
		"signal":    res.Signal,
	}, handlerErr)

	switch {
	case handlerErr != nil:
		return res, handlerErr
	case ctx.Err() != nil:
		return res, fmt.Errorf("%s: %w", c.Name, ctx.Err())
	}

	var exitErr *osexec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return res, fmt.Errorf("wait %s: %w", c.Name, waitErr)
	}
	return res, nil
}

// deliverLines reads r until EOF, calling handle once per line in order.
func deliverLines(ctx context.Context, r io.Reader, handle LineHandler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineBuffer)

	for scanner.Scan() {
		if err := handle(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		// The pipe is closed underneath us when the context kills the process.
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("read stdout: %w", err)
	}
	return nil
}
