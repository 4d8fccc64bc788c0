package executor

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/opsnap/opsnap/internal/logging"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests drive sh directly")
	}
	return New(logging.Discard())
}

func TestExecuteSuccess(t *testing.T) {
	e := newTestExecutor(t)

	res := e.Execute(context.Background(), "echo hello world", Options{})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if strings.TrimSpace(res.Stdout) != "hello world" {
		t.Errorf("expected stdout 'hello world', got %q", res.Stdout)
	}
	if res.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", res.ExitCode)
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	e := newTestExecutor(t)

	res := e.Execute(context.Background(), "echo oops >&2; exit 3", Options{})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", res.ExitCode)
	}
	if strings.TrimSpace(res.Stderr) != "oops" {
		t.Errorf("expected stderr 'oops', got %q", res.Stderr)
	}
	if res.TimedOut {
		t.Error("non-zero exit must not report timeout")
	}
}

func TestExecuteTimeoutIsDistinct(t *testing.T) {
	e := newTestExecutor(t)

	start := time.Now()
	res := e.Execute(context.Background(), "sleep 5", Options{Timeout: 100 * time.Millisecond})
	if time.Since(start) > 3*time.Second {
		t.Fatal("timeout did not abort the command")
	}
	if res.Success {
		t.Fatal("expected failure")
	}
	if !res.TimedOut {
		t.Error("expected TimedOut=true")
	}
	if !strings.Contains(res.Stderr, "timed out") {
		t.Errorf("expected timeout message in stderr, got %q", res.Stderr)
	}
}

func TestExecuteMissingBinary(t *testing.T) {
	e := newTestExecutor(t)

	// The shell reports a missing binary as exit 127.
	res := e.Execute(context.Background(), "/definitely/not/a/real/binary", Options{})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.ExitCode != 127 {
		t.Errorf("expected exit code 127, got %d", res.ExitCode)
	}
	if res.TimedOut {
		t.Error("missing binary must not report timeout")
	}
}
