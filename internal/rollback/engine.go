// Package rollback restores files and registry state from a snapshot
// directory back to their original locations.
package rollback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/opsnap/opsnap/internal/registry"
	"github.com/opsnap/opsnap/internal/snapshot"
)

// ErrSnapshotNotFound is returned when the snapshot directory is missing.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Engine restores snapshots taken by the snapshot store.
type Engine struct {
	store *snapshot.Store
	// restoreMap maps backed-up basenames to their original paths.
	// Files whose basename is absent from the map are skipped; they
	// cannot be restored. Extending the map is a config concern.
	restoreMap map[string]string
	reg        *registry.Manager
	logger     *slog.Logger
}

// NewEngine creates an Engine over the given store and restore map.
func NewEngine(store *snapshot.Store, restoreMap map[string]string, reg *registry.Manager, logger *slog.Logger) *Engine {
	return &Engine{
		store:      store,
		restoreMap: restoreMap,
		reg:        reg,
		logger:     logger,
	}
}

// Rollback restores the named snapshot. It fails fast with
// ErrSnapshotNotFound when the snapshot directory does not exist, without
// touching anything. A registry import failure fails the whole rollback
// before any file is restored. Per-file restore errors are logged and
// skipped; an unmapped basename is warned about and skipped.
func (e *Engine) Rollback(ctx context.Context, id string) error {
	if err := snapshot.ValidateID(id); err != nil {
		return err
	}

	dir := e.store.Dir(id)
	if _, err := os.Stat(dir); err != nil {
		e.logger.Error("snapshot not found", "snapshot_id", id)
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}

	e.logger.Info("rolling back", "snapshot_id", id)

	// Registry first: an inconsistent hive is worse than stale files.
	if e.reg != nil && e.reg.Available() {
		regBackup := filepath.Join(dir, registry.BackupFile)
		if _, err := os.Stat(regBackup); err == nil {
			if err := e.reg.Import(ctx, regBackup); err != nil {
				e.logger.Error("registry restore failed", "error", err)
				return fmt.Errorf("registry restore: %w", err)
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read snapshot directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == snapshot.MetadataFile || name == registry.BackupFile {
			continue
		}

		original, ok := e.restoreMap[name]
		if !ok {
			e.logger.Warn("no restore target for backed-up file, skipping", "file", name)
			continue
		}

		if err := restoreFile(filepath.Join(dir, name), original); err != nil {
			e.logger.Error("failed to restore file", "target", original, "error", err)
			continue
		}
		e.logger.Info("restored", "target", original)
	}

	return nil
}

// restoreFile copies a backed-up file over its original, creating parent
// directories if the original's directory vanished since the snapshot.
func restoreFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
