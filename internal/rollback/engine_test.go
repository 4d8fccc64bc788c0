package rollback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opsnap/opsnap/internal/logging"
	"github.com/opsnap/opsnap/internal/registry"
	"github.com/opsnap/opsnap/internal/snapshot"
)

// fixture builds a store with one protected file, snapshots it, then
// mutates the original. Returns the engine, the snapshot id, the original
// path, and the pre-snapshot content.
func fixture(t *testing.T) (*Engine, string, string, string) {
	t.Helper()

	home := t.TempDir()
	original := filepath.Join(home, ".bashrc")
	content := "alias ll='ls -la'\n"
	if err := os.WriteFile(original, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	root := t.TempDir()
	reg := registry.NewManager(filepath.Join(root, "registry"), logging.Discard())
	store, err := snapshot.NewStore(root, []string{original}, reg, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}

	id, err := store.Create(context.Background(), "edit_shell")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Simulate the failed operation clobbering the file.
	if err := os.WriteFile(original, []byte("# broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(store, map[string]string{".bashrc": original}, reg, logging.Discard())
	return engine, id, original, content
}

func TestRollbackRestoresBackedUpBytes(t *testing.T) {
	engine, id, original, content := fixture(t)

	if err := engine.Rollback(context.Background(), id); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	data, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != content {
		t.Errorf("expected original bytes restored, got %q", data)
	}
}

func TestRollbackMissingSnapshot(t *testing.T) {
	engine, _, original, _ := fixture(t)

	before, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}

	err = engine.Rollback(context.Background(), "never_existed_20250101_000000")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}

	// No side effects: the clobbered file stays clobbered.
	after, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("rollback of a missing snapshot must not touch files")
	}
}

func TestRollbackSkipsUnmappedFiles(t *testing.T) {
	engine, id, original, _ := fixture(t)

	// Plant a file in the snapshot whose basename has no restore entry.
	stray := filepath.Join(engine.store.Dir(id), "mystery.conf")
	if err := os.WriteFile(stray, []byte("orphaned"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := engine.Rollback(context.Background(), id); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	// The mapped file is restored; nothing named mystery.conf appears
	// anywhere it could have been "restored" to.
	if _, err := os.Stat(original); err != nil {
		t.Errorf("mapped file should exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(original), "mystery.conf")); !os.IsNotExist(err) {
		t.Error("unmapped file must not be restored anywhere")
	}
}

func TestRollbackSkipsMetadataFile(t *testing.T) {
	engine, id, original, _ := fixture(t)

	engineWithMetaMapping := NewEngine(engine.store, map[string]string{
		".bashrc":             original,
		snapshot.MetadataFile: filepath.Join(filepath.Dir(original), "metadata.json"),
	}, engine.reg, logging.Discard())

	if err := engineWithMetaMapping.Rollback(context.Background(), id); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(original), "metadata.json")); !os.IsNotExist(err) {
		t.Error("metadata.json must never be restored, even when mapped")
	}
}

func TestRollbackRejectsTraversalID(t *testing.T) {
	engine, _, _, _ := fixture(t)
	if err := engine.Rollback(context.Background(), "../escape"); err == nil {
		t.Fatal("expected traversal id to be rejected")
	}
}
