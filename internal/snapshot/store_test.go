package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/opsnap/opsnap/internal/logging"
	"github.com/opsnap/opsnap/internal/registry"
)

func newTestStore(t *testing.T, protected ...string) *Store {
	t.Helper()
	root := t.TempDir()
	reg := registry.NewManager(filepath.Join(root, "registry"), logging.Discard())
	s, err := NewStore(root, protected, reg, logging.Discard())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func TestCreateThenList(t *testing.T) {
	src := filepath.Join(t.TempDir(), ".bashrc")
	if err := os.WriteFile(src, []byte("export PATH=$PATH:/opt/bin\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, src)

	id, err := s.Create(context.Background(), "test_op")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found := false
	for _, meta := range s.List() {
		if meta.SnapshotID == id {
			found = true
			if meta.Operation != "test_op" {
				t.Errorf("expected operation=test_op, got %s", meta.Operation)
			}
			if meta.System != runtime.GOOS {
				t.Errorf("expected system=%s, got %s", runtime.GOOS, meta.System)
			}
			if meta.Timestamp == "" {
				t.Error("expected timestamp to be set")
			}
		}
	}
	if !found {
		t.Fatalf("snapshot %s missing from List()", id)
	}

	// The protected file must have been copied by basename.
	copied := filepath.Join(s.Dir(id), ".bashrc")
	data, err := os.ReadFile(copied)
	if err != nil {
		t.Fatalf("backed-up file missing: %v", err)
	}
	if string(data) != "export PATH=$PATH:/opt/bin\n" {
		t.Errorf("backed-up content mismatch: %q", data)
	}
}

func TestCreateSkipsMissingFiles(t *testing.T) {
	s := newTestStore(t, "/nonexistent/definitely/not/here")

	id, err := s.Create(context.Background(), "partial")
	if err != nil {
		t.Fatalf("Create should tolerate missing protected files: %v", err)
	}
	if _, err := s.Read(id); err != nil {
		t.Fatalf("metadata should exist for partial snapshot: %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)

	// Fabricate snapshots with distinct fixed timestamps: Create uses
	// second resolution, too coarse to order within a test.
	for _, ts := range []string{"20250101_100000", "20250101_120000", "20250101_110000"} {
		id := "op_" + ts
		dir := s.Dir(id)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			t.Fatal(err)
		}
		meta := Metadata{SnapshotID: id, Timestamp: ts, Operation: "op"}
		if err := s.writeMetadata(dir, meta); err != nil {
			t.Fatal(err)
		}
	}

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(list))
	}
	want := []string{"20250101_120000", "20250101_110000", "20250101_100000"}
	for i, ts := range want {
		if list[i].Timestamp != ts {
			t.Errorf("position %d: expected %s, got %s", i, ts, list[i].Timestamp)
		}
	}
}

func TestListSkipsDirsWithoutMetadata(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(s.Dir("stray_dir"), 0o700); err != nil {
		t.Fatal(err)
	}
	if len(s.List()) != 0 {
		t.Error("expected directories without metadata to be skipped")
	}
}

func TestListSkipsCorruptMetadata(t *testing.T) {
	s := newTestStore(t)
	dir := s.Dir("bad_20250101_100000")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if len(s.List()) != 0 {
		t.Error("expected corrupt metadata to be skipped")
	}
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"", "../escape", "a/b", "op name"} {
		if err := ValidateID(id); err == nil {
			t.Errorf("expected %q to be rejected", id)
		}
	}
	if err := ValidateID("install_tools_20250101_120000"); err != nil {
		t.Errorf("expected valid id to pass: %v", err)
	}
}

func TestCreateRejectsTraversalOperation(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Create(context.Background(), "../../etc"); err == nil {
		t.Fatal("expected traversal operation name to be rejected")
	}
}
