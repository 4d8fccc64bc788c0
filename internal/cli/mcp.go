package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opsnap/opsnap/internal/config"
	"github.com/opsnap/opsnap/internal/logging"
	"github.com/opsnap/opsnap/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve opsnap tools over the Model Context Protocol (stdio)",
	Long:  "Exposes opsnap_exec, opsnap_snapshots, opsnap_rollback, and opsnap_validate as MCP tools. Execution is auto-approved after the snapshot; rollback is never automatic.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// stdout belongs to the MCP transport; log to the file only.
	logger := logging.Discard()
	if cfg.LogFile != "" {
		logger = logging.FileOnly(cfg.LogFile)
	}

	server, err := mcp.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return server.Run(ctx)
}
