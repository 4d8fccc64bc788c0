// Package snapshot creates and enumerates point-in-time backups of the
// protected config file set. A snapshot is a directory named
// {operation}_{timestamp} holding copies of whatever protected files could
// be read, an optional registry export on Windows, and a metadata.json.
//
// Snapshots are best-effort: individual copy failures are logged and
// skipped, never surfaced to the caller. A partial snapshot beats none.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/opsnap/opsnap/internal/registry"
)

// MetadataFile is the metadata filename inside each snapshot directory.
const MetadataFile = "metadata.json"

// exportedKey is the registry hive exported into Windows snapshots.
const exportedKey = "HKEY_CURRENT_USER"

// validID matches alphanumeric, dash, underscore, and dot characters only.
// Rejecting anything else keeps snapshot ids safe to join into paths.
var validID = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Metadata describes one snapshot.
type Metadata struct {
	SnapshotID string `json:"snapshot_id"`
	Timestamp  string `json:"timestamp"`
	Operation  string `json:"operation"`
	System     string `json:"system"`
	User       string `json:"user"`
	Cwd        string `json:"cwd"`
}

// Store manages snapshot directories under a backup root.
type Store struct {
	root           string
	protectedFiles []string
	reg            *registry.Manager
	logger         *slog.Logger
}

// NewStore creates a Store rooted at root, backing up the given files.
func NewStore(root string, protectedFiles []string, reg *registry.Manager, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create backup root: %w", err)
	}
	return &Store{
		root:           root,
		protectedFiles: protectedFiles,
		reg:            reg,
		logger:         logger,
	}, nil
}

// ValidateID rejects ids that could escape the backup root.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("snapshot id must not be empty")
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("snapshot id must not contain '..'")
	}
	if !validID.MatchString(id) {
		return fmt.Errorf("snapshot id contains invalid characters: only alphanumeric, dash, underscore, and dot are allowed")
	}
	return nil
}

// Create takes a snapshot for the named operation and returns its id.
// Copy failures for individual files are logged and skipped; Create only
// fails when the snapshot directory or its metadata cannot be written.
func (s *Store) Create(ctx context.Context, operation string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	id := fmt.Sprintf("%s_%s", operation, timestamp)
	if err := ValidateID(id); err != nil {
		return "", fmt.Errorf("invalid operation name: %w", err)
	}

	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}

	s.logger.Info("creating snapshot", "snapshot_id", id)

	// Registry export is Windows-only and best-effort like everything else.
	if s.reg != nil && s.reg.Available() {
		target := filepath.Join(dir, registry.BackupFile)
		if err := s.reg.ExportTo(ctx, exportedKey, target); err != nil {
			s.logger.Warn("registry backup failed", "error", err)
		} else {
			s.logger.Info("registry backup created", "file", target)
		}
	}

	for _, src := range s.protectedFiles {
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dst := filepath.Join(dir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			s.logger.Warn("failed to back up file", "file", src, "error", err)
			continue
		}
		s.logger.Info("backed up", "file", src)
	}

	meta := Metadata{
		SnapshotID: id,
		Timestamp:  timestamp,
		Operation:  operation,
		System:     runtime.GOOS,
		User:       currentUser(),
		Cwd:        workingDir(),
	}
	if err := s.writeMetadata(dir, meta); err != nil {
		return "", err
	}

	return id, nil
}

// List returns metadata for every snapshot under the root, newest first.
// Directories without metadata are skipped silently; corrupt metadata is
// logged and skipped.
func (s *Store) List() []Metadata {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil
	}

	var snapshots []Metadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Read(e.Name())
		if err != nil {
			if !os.IsNotExist(err) {
				s.logger.Warn("failed to read snapshot metadata", "snapshot", e.Name(), "error", err)
			}
			continue
		}
		snapshots = append(snapshots, *meta)
	}

	// Lexicographic works: the timestamp format is fixed-width.
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp > snapshots[j].Timestamp
	})
	return snapshots
}

// Read loads metadata for one snapshot by id.
func (s *Store) Read(id string) (*Metadata, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, id, MetadataFile))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata for %s: %w", id, err)
	}
	return &meta, nil
}

// Dir returns the on-disk directory for a snapshot id.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *Store) writeMetadata(dir string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	path := filepath.Join(dir, MetadataFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return os.Rename(tmp, path)
}

// copyFile copies src to dst preserving permissions.
func copyFile(src, dst string) error {
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
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("USERNAME")
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}
