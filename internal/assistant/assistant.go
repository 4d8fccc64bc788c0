// Package assistant implements the snapshot/execute/rollback control loop:
// take a snapshot, ask the user, run the command, and on failure offer to
// roll back to the snapshot just taken. One operation at a time, fully
// synchronous.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsnap/opsnap/internal/audit"
	"github.com/opsnap/opsnap/internal/executor"
	"github.com/opsnap/opsnap/internal/rollback"
	"github.com/opsnap/opsnap/internal/snapshot"
)

// Runner executes one shell command. Satisfied by *executor.Executor;
// tests substitute a recorder.
type Runner interface {
	Execute(ctx context.Context, command string, opts executor.Options) *executor.Result
}

// Confirmer answers a yes/no question. The CLI backs it with the
// terminal; tests and the MCP server inject fixed policies.
type Confirmer func(question string) bool

// AutoApprove says yes to everything. Used where no terminal exists.
func AutoApprove(string) bool { return true }

// AutoDeny says no to everything.
func AutoDeny(string) bool { return false }

// Outcome is the result of one SafeExecute attempt.
type Outcome struct {
	Result     *executor.Result `json:"result,omitempty"`
	SnapshotID string           `json:"snapshot_id"`
	Cancelled  bool             `json:"cancelled"`
	RolledBack bool             `json:"rolled_back"`
}

// Config assembles an Assistant. All collaborators are explicit; nothing
// reaches for global state.
type Config struct {
	Store   *snapshot.Store
	Runner  Runner
	Engine  *rollback.Engine
	Confirm Confirmer
	Audit   *audit.Log // optional
	Logger  *slog.Logger
	Timeout time.Duration
}

// Assistant drives the control loop.
type Assistant struct {
	store   *snapshot.Store
	runner  Runner
	engine  *rollback.Engine
	confirm Confirmer
	audit   *audit.Log
	logger  *slog.Logger
	timeout time.Duration
}

// New validates the config and builds an Assistant.
func New(cfg Config) (*Assistant, error) {
	if cfg.Store == nil || cfg.Runner == nil || cfg.Engine == nil {
		return nil, fmt.Errorf("store, runner, and engine are required")
	}
	if cfg.Confirm == nil {
		cfg.Confirm = AutoDeny
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = executor.DefaultTimeout
	}
	return &Assistant{
		store:   cfg.Store,
		runner:  cfg.Runner,
		engine:  cfg.Engine,
		confirm: cfg.Confirm,
		audit:   cfg.Audit,
		logger:  cfg.Logger,
		timeout: cfg.Timeout,
	}, nil
}

// SafeExecute runs the control loop for one command. The snapshot is taken
// before the confirmation prompt so the id shown to the user is the one a
// rollback would use. Declining execution cancels without side effects
// beyond the snapshot itself. On failure a second prompt offers rollback;
// declining leaves the post-failure state in place.
func (a *Assistant) SafeExecute(ctx context.Context, command, operation string, elevated bool) (*Outcome, error) {
	snapshotID, err := a.store.Create(ctx, operation)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}

	out := &Outcome{SnapshotID: snapshotID}

	question := fmt.Sprintf("Operation: %s\nCommand:   %s\nSnapshot:  %s", operation, command, snapshotID)
	if elevated {
		question += "\nThis operation requires administrative privileges."
	}
	question += "\nExecute this operation?"

	if !a.confirm(question) {
		a.logger.Info("operation cancelled by user", "operation", operation)
		out.Cancelled = true
		a.record(audit.EventCancelled, operation, command, snapshotID, 0, "")
		return out, nil
	}

	out.Result = a.runner.Execute(ctx, command, executor.Options{
		Timeout:  a.timeout,
		Elevated: elevated,
	})

	if out.Result.Success {
		a.logger.Info("operation completed", "operation", operation)
		a.record(audit.EventExecuted, operation, command, snapshotID, 0, "")
		return out, nil
	}

	detail := out.Result.Stderr
	if out.Result.TimedOut {
		detail = "timed out"
	}
	a.logger.Error("operation failed", "operation", operation, "exit_code", out.Result.ExitCode, "timed_out", out.Result.TimedOut)
	a.record(audit.EventFailed, operation, command, snapshotID, out.Result.ExitCode, detail)

	if !a.confirm("Rollback changes?") {
		return out, nil
	}

	if err := a.engine.Rollback(ctx, snapshotID); err != nil {
		a.logger.Error("rollback failed", "snapshot_id", snapshotID, "error", err)
		a.record(audit.EventRollbackFailed, operation, command, snapshotID, out.Result.ExitCode, err.Error())
		return out, fmt.Errorf("rollback: %w", err)
	}

	out.RolledBack = true
	a.logger.Info("rolled back", "snapshot_id", snapshotID)
	a.record(audit.EventRolledBack, operation, command, snapshotID, out.Result.ExitCode, "")
	return out, nil
}

func (a *Assistant) record(event audit.Event, operation, command, snapshotID string, exitCode int, detail string) {
	if a.audit == nil {
		return
	}
	err := a.audit.Record(audit.Entry{
		Event:      event,
		Operation:  operation,
		Command:    command,
		SnapshotID: snapshotID,
		ExitCode:   exitCode,
		Detail:     detail,
	})
	if err != nil {
		a.logger.Warn("failed to record audit entry", "error", err)
	}
}
