// Package mcp exposes opsnap over the Model Context Protocol so an agent
// can take snapshots, execute commands, and roll back through tool calls.
// There is no terminal on the other end: execution is auto-approved after
// the snapshot is taken, and a failed command is never auto-rolled-back.
// The agent must call opsnap_rollback explicitly.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/opsnap/opsnap/internal/assistant"
	"github.com/opsnap/opsnap/internal/audit"
	"github.com/opsnap/opsnap/internal/config"
	"github.com/opsnap/opsnap/internal/executor"
	"github.com/opsnap/opsnap/internal/llm"
	"github.com/opsnap/opsnap/internal/registry"
	"github.com/opsnap/opsnap/internal/rollback"
	"github.com/opsnap/opsnap/internal/snapshot"
)

const serverVersion = "0.1.0"

// Server wraps the MCP SDK server around the opsnap control loop.
type Server struct {
	mcpServer *mcpsdk.Server
	assistant *assistant.Assistant
	store     *snapshot.Store
	engine    *rollback.Engine
	facade    *llm.Interface
	auditLog  *audit.Log
	logger    *slog.Logger
}

// New assembles an MCP server from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	reg := registry.NewManager(cfg.BackupDir, logger)

	store, err := snapshot.NewStore(cfg.BackupDir, cfg.ProtectedFiles, reg, logger)
	if err != nil {
		return nil, fmt.Errorf("create snapshot store: %w", err)
	}
	engine := rollback.NewEngine(store, cfg.RestoreMap, reg, logger)

	auditLog, err := audit.Open(cfg.AuditLog)
	if err != nil {
		return nil, fmt.Errorf("open audit journal: %w", err)
	}

	asst, err := assistant.New(assistant.Config{
		Store:   store,
		Runner:  executor.New(logger),
		Engine:  engine,
		Confirm: assistant.AutoApprove,
		Audit:   auditLog,
		Logger:  logger,
		Timeout: cfg.CommandTimeout.Std(),
	})
	if err != nil {
		return nil, fmt.Errorf("create assistant: %w", err)
	}

	provider, err := llm.NewProvider(cfg.Provider.Type, llm.Options{
		Model:   cfg.Provider.Model,
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	s := &Server{
		assistant: asst,
		store:     store,
		engine:    engine,
		facade:    llm.NewInterface(provider, logger),
		auditLog:  auditLog,
		logger:    logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "opsnap",
			Version: serverVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close closes the audit journal.
func (s *Server) Close() error {
	return s.auditLog.Close()
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "opsnap_exec",
		Description: "Execute a shell command after taking a config snapshot. The snapshot id in the result can be passed to opsnap_rollback if the change needs to be undone.",
	}, s.handleExec)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "opsnap_snapshots",
		Description: "List available snapshots, newest first.",
	}, s.handleSnapshots)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "opsnap_rollback",
		Description: "Restore config files (and registry state on Windows) from a snapshot.",
	}, s.handleRollback)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "opsnap_validate",
		Description: "Ask the configured LLM provider for a safety verdict on a shell command without executing it.",
	}, s.handleValidate)
}
