// Package cli wires the opsnap subcommands. Each verb lives in its own
// file and registers itself with the root command in init().
package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opsnap/opsnap/internal/assistant"
	"github.com/opsnap/opsnap/internal/audit"
	"github.com/opsnap/opsnap/internal/config"
	"github.com/opsnap/opsnap/internal/executor"
	"github.com/opsnap/opsnap/internal/logging"
	"github.com/opsnap/opsnap/internal/registry"
	"github.com/opsnap/opsnap/internal/rollback"
	"github.com/opsnap/opsnap/internal/snapshot"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "opsnap",
	Short: "Snapshot-gated system administration assistant",
	Long:  "Runs shell commands behind a snapshot of your config files, with interactive confirmation and rollback on failure. Natural-language requests are translated to commands by a configurable LLM provider.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default: ~/.opsnap/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session bundles the components every verb needs. Construction is
// explicit so nothing depends on import-time globals.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *snapshot.Store
	engine *rollback.Engine
	reg    *registry.Manager
}

func newSession() (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.Setup(cfg.LogFile)
	reg := registry.NewManager(cfg.BackupDir, logger)

	store, err := snapshot.NewStore(cfg.BackupDir, cfg.ProtectedFiles, reg, logger)
	if err != nil {
		return nil, fmt.Errorf("create snapshot store: %w", err)
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		store:  store,
		engine: rollback.NewEngine(store, cfg.RestoreMap, reg, logger),
		reg:    reg,
	}, nil
}

// newAssistant builds the control loop with the given confirmer and an
// open audit journal. The caller owns closing the journal.
func (s *session) newAssistant(confirm assistant.Confirmer) (*assistant.Assistant, *audit.Log, error) {
	journal, err := audit.Open(s.cfg.AuditLog)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit journal: %w", err)
	}

	a, err := assistant.New(assistant.Config{
		Store:   s.store,
		Runner:  executor.New(s.logger),
		Engine:  s.engine,
		Confirm: confirm,
		Audit:   journal,
		Logger:  s.logger,
		Timeout: s.cfg.CommandTimeout.Std(),
	})
	if err != nil {
		journal.Close()
		return nil, nil, err
	}
	return a, journal, nil
}

// terminalConfirmer prompts on out and reads yes/no answers from in.
// Only an explicit affirmative proceeds.
func terminalConfirmer(in io.Reader, out io.Writer) assistant.Confirmer {
	reader := bufio.NewReader(in)
	return func(question string) bool {
		fmt.Fprintf(out, "\n%s (yes/no): ", question)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "yes" || answer == "y"
	}
}
