// Package registry wraps the Windows registry export/import tools and
// powercfg. Everything shells out to the platform binaries; the .reg files
// are treated as opaque blobs. On other platforms every operation returns
// ErrUnavailable immediately.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// ErrUnavailable is returned for registry operations off Windows.
var ErrUnavailable = errors.New("registry operations only available on windows")

// BackupFile is the well-known name of a registry export inside a snapshot.
const BackupFile = "registry_backup.reg"

// Backup describes one registry export on disk.
type Backup struct {
	File    string    `json:"file"`
	Created time.Time `json:"created"`
	Size    int64     `json:"size"`
}

// Manager performs registry exports and imports into a backup directory.
type Manager struct {
	backupDir string
	goos      string
	logger    *slog.Logger
}

// NewManager creates a Manager rooted at backupDir.
func NewManager(backupDir string, logger *slog.Logger) *Manager {
	return &Manager{backupDir: backupDir, goos: runtime.GOOS, logger: logger}
}

// Available reports whether registry operations can work on this platform.
func (m *Manager) Available() bool {
	return m.goos == "windows"
}

// Export writes a timestamped .reg export of keyPath into the backup
// directory and returns the file path.
func (m *Manager) Export(ctx context.Context, keyPath string) (string, error) {
	if !m.Available() {
		return "", ErrUnavailable
	}
	if err := os.MkdirAll(m.backupDir, 0o700); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	file := filepath.Join(m.backupDir, fmt.Sprintf("registry_backup_%s.reg", timestamp))

	cmd := exec.CommandContext(ctx, "reg", "export", keyPath, file, "/y")
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("reg export %s: %w: %s", keyPath, err, strings.TrimSpace(string(out)))
	}

	m.logger.Info("registry backup created", "file", file, "key", keyPath)
	return file, nil
}

// ExportTo writes an export of keyPath to an explicit file. Used by the
// snapshot store, which names the export inside the snapshot directory.
func (m *Manager) ExportTo(ctx context.Context, keyPath, file string) error {
	if !m.Available() {
		return ErrUnavailable
	}
	cmd := exec.CommandContext(ctx, "reg", "export", keyPath, file, "/y")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("reg export %s: %w: %s", keyPath, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Import re-applies a .reg export.
func (m *Manager) Import(ctx context.Context, file string) error {
	if !m.Available() {
		return ErrUnavailable
	}
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("backup file not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, "reg", "import", file)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("reg import %s: %w: %s", file, err, strings.TrimSpace(string(out)))
	}

	m.logger.Info("registry restored", "file", file)
	return nil
}

// ListBackups returns registry exports in the backup directory, newest
// first. Matching is by the registry_backup_*.reg filename pattern only;
// exports carry no metadata.
func (m *Manager) ListBackups() ([]Backup, error) {
	matches, err := filepath.Glob(filepath.Join(m.backupDir, "registry_backup_*.reg"))
	if err != nil {
		return nil, fmt.Errorf("glob backups: %w", err)
	}

	var backups []Backup
	for _, file := range matches {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		backups = append(backups, Backup{
			File:    file,
			Created: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Created.After(backups[j].Created)
	})
	return backups, nil
}
