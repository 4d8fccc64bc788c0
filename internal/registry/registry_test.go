package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/opsnap/opsnap/internal/logging"
)

func TestUnavailableOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("registry is available on windows")
	}
	m := NewManager(t.TempDir(), logging.Discard())

	if m.Available() {
		t.Fatal("expected registry to be unavailable")
	}
	if _, err := m.Export(context.Background(), "HKEY_CURRENT_USER"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Export: expected ErrUnavailable, got %v", err)
	}
	if err := m.Import(context.Background(), "x.reg"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Import: expected ErrUnavailable, got %v", err)
	}
	if err := m.SetPowerScheme(context.Background(), "balanced"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("SetPowerScheme: expected ErrUnavailable, got %v", err)
	}
}

func TestSetPowerSchemeUnknown(t *testing.T) {
	m := NewManager(t.TempDir(), logging.Discard())
	err := m.SetPowerScheme(context.Background(), "ludicrous")
	if err == nil || errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unknown-scheme error, got %v", err)
	}
}

func TestListBackups(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, logging.Discard())

	older := filepath.Join(dir, "registry_backup_20250101_090000.reg")
	newer := filepath.Join(dir, "registry_backup_20250101_100000.reg")
	unrelated := filepath.Join(dir, "notes.txt")
	for _, f := range []string{older, newer, unrelated} {
		if err := os.WriteFile(f, []byte("Windows Registry Editor Version 5.00"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	// Make mtimes deterministic.
	base := time.Now().Add(-time.Hour)
	os.Chtimes(older, base, base)
	os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute))

	backups, err := m.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
	if backups[0].File != newer {
		t.Errorf("expected newest first, got %s", backups[0].File)
	}
}

func TestListBackupsEmptyDir(t *testing.T) {
	m := NewManager(t.TempDir(), logging.Discard())
	backups, err := m.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}
