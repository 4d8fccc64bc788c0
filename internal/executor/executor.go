// Package executor runs a single shell command and captures its outcome.
// One command, one shell invocation, bounded by a timeout. There is no
// retry and no classification beyond exit code, launch failure, and
// timeout.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"
)

// DefaultTimeout bounds command execution when Options leaves it zero.
const DefaultTimeout = 300 * time.Second

// Options controls a single execution.
type Options struct {
	Timeout  time.Duration
	Elevated bool // request admin privileges where the platform supports it
}

// Result captures the outcome of one command.
type Result struct {
	Success  bool   `json:"success"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out"`
}

// Executor runs commands through the platform shell.
type Executor struct {
	goos   string
	logger *slog.Logger
}

// New creates an Executor for the current platform.
func New(logger *slog.Logger) *Executor {
	return &Executor{goos: runtime.GOOS, logger: logger}
}

// Execute runs command through the platform shell and waits for it.
// Failure modes all come back as a Result, never a process-fatal error:
// non-zero exit carries the exit code and stderr, a timeout sets TimedOut,
// and a launch failure carries the error text in Stderr.
func (e *Executor) Execute(ctx context.Context, command string, opts Options) *Result {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	e.logger.Info("executing", "command", command, "elevated", opts.Elevated)

	cmd := e.buildCommand(ctx, command, opts.Elevated)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		e.logger.Error("command timed out", "command", command, "timeout", timeout)
		return &Result{
			Stderr:   fmt.Sprintf("command timed out after %s", timeout),
			ExitCode: -1,
			TimedOut: true,
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e.logger.Error("command failed", "command", command, "exit_code", exitErr.ExitCode())
			return &Result{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				ExitCode: exitErr.ExitCode(),
			}
		}
		// Launch failure: shell missing, permission denied, etc.
		e.logger.Error("command launch failed", "command", command, "error", err)
		return &Result{
			Stderr:   err.Error(),
			ExitCode: -1,
		}
	}

	e.logger.Info("command completed", "command", command)
	return &Result{
		Success: true,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
}

// buildCommand wraps the command in the platform shell. Elevation is only
// meaningful on Windows, where the command is relaunched through
// powershell with a RunAs verb; elsewhere the flag is ignored and the
// caller is expected to already hold sufficient privileges.
func (e *Executor) buildCommand(ctx context.Context, command string, elevated bool) *exec.Cmd {
	if e.goos == "windows" {
		if elevated {
			ps := fmt.Sprintf("Start-Process powershell -Verb RunAs -Wait -ArgumentList '-Command', '%s'", command)
			return exec.CommandContext(ctx, "powershell", "-Command", ps)
		}
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}
