// Package logging sets up the shared slog logger. Output is mirrored to
// stdout and appended to the per-user log file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup returns a logger writing to stdout and, when the log file can be
// opened, to path as well. A file that cannot be opened degrades to
// stdout-only rather than failing the run.
func Setup(path string) *slog.Logger {
	var w io.Writer = os.Stdout

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err == nil {
			f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err == nil {
				w = io.MultiWriter(os.Stdout, f)
			}
		}
	}

	return slog.New(slog.NewTextHandler(w, nil))
}

// FileOnly returns a logger that appends to path without mirroring to
// stdout. The MCP server uses it: stdout belongs to the protocol
// transport there. Falls back to Discard when the file cannot be opened.
func FileOnly(path string) *slog.Logger {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Discard()
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Discard()
	}
	return slog.New(slog.NewTextHandler(f, nil))
}

// Discard returns a logger that drops everything. Used by tests and by
// components constructed without an explicit logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
