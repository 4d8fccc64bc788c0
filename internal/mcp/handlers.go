package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// --- Input/Output types ---

// ExecInput defines parameters for the opsnap_exec tool.
type ExecInput struct {
	Command   string `json:"command" jsonschema:"shell command to execute"`
	Operation string `json:"operation,omitempty" jsonschema:"operation name used in the snapshot id"`
	Elevated  bool   `json:"elevated,omitempty" jsonschema:"request administrative privileges where supported"`
}

// ExecOutput contains the execution outcome.
type ExecOutput struct {
	Success    bool   `json:"success"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	ExitCode   int    `json:"exit_code"`
	TimedOut   bool   `json:"timed_out,omitempty"`
	SnapshotID string `json:"snapshot_id"`
}

// SnapshotsInput is empty, the tool takes no parameters.
type SnapshotsInput struct{}

// SnapshotItem describes one snapshot.
type SnapshotItem struct {
	SnapshotID string `json:"snapshot_id"`
	Operation  string `json:"operation"`
	Timestamp  string `json:"timestamp"`
	System     string `json:"system"`
}

// SnapshotsOutput lists all snapshots, newest first.
type SnapshotsOutput struct {
	Snapshots []SnapshotItem `json:"snapshots"`
}

// RollbackInput defines parameters for the opsnap_rollback tool.
type RollbackInput struct {
	SnapshotID string `json:"snapshot_id" jsonschema:"snapshot id from opsnap_exec or opsnap_snapshots"`
}

// RollbackOutput confirms the rollback.
type RollbackOutput struct {
	SnapshotID string `json:"snapshot_id"`
	Restored   bool   `json:"restored"`
	Error      string `json:"error,omitempty"`
}

// ValidateInput defines parameters for the opsnap_validate tool.
type ValidateInput struct {
	Command string `json:"command" jsonschema:"shell command to assess"`
}

// ValidateOutput carries the provider's safety verdict.
type ValidateOutput struct {
	Safe            bool     `json:"safe"`
	Confidence      float64  `json:"confidence"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`
}

// --- Handlers ---

func (s *Server) handleExec(ctx context.Context, req *mcpsdk.CallToolRequest, input ExecInput) (*mcpsdk.CallToolResult, ExecOutput, error) {
	operation := input.Operation
	if operation == "" {
		operation = "mcp_exec"
	}

	outcome, err := s.assistant.SafeExecute(ctx, input.Command, operation, input.Elevated)
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, ExecOutput{}, err
	}

	out := ExecOutput{SnapshotID: outcome.SnapshotID}
	if outcome.Result != nil {
		out.Success = outcome.Result.Success
		out.Stdout = outcome.Result.Stdout
		out.Stderr = outcome.Result.Stderr
		out.ExitCode = outcome.Result.ExitCode
		out.TimedOut = outcome.Result.TimedOut
	}

	if !out.Success {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleSnapshots(ctx context.Context, req *mcpsdk.CallToolRequest, input SnapshotsInput) (*mcpsdk.CallToolResult, SnapshotsOutput, error) {
	var out SnapshotsOutput
	for _, meta := range s.store.List() {
		out.Snapshots = append(out.Snapshots, SnapshotItem{
			SnapshotID: meta.SnapshotID,
			Operation:  meta.Operation,
			Timestamp:  meta.Timestamp,
			System:     meta.System,
		})
	}
	return nil, out, nil
}

func (s *Server) handleRollback(ctx context.Context, req *mcpsdk.CallToolRequest, input RollbackInput) (*mcpsdk.CallToolResult, RollbackOutput, error) {
	out := RollbackOutput{SnapshotID: input.SnapshotID}

	if err := s.engine.Rollback(ctx, input.SnapshotID); err != nil {
		out.Error = err.Error()
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}

	out.Restored = true
	return nil, out, nil
}

func (s *Server) handleValidate(ctx context.Context, req *mcpsdk.CallToolRequest, input ValidateInput) (*mcpsdk.CallToolResult, ValidateOutput, error) {
	v, err := s.facade.ValidateSafety(ctx, input.Command)
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, ValidateOutput{}, err
	}

	return nil, ValidateOutput{
		Safe:            v.Safe,
		Confidence:      v.Confidence,
		Risks:           v.Risks,
		Recommendations: v.Recommendations,
	}, nil
}
