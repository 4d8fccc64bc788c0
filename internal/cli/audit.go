package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsnap/opsnap/internal/audit"
	"github.com/opsnap/opsnap/internal/config"
)

var auditVerify bool

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().BoolVar(&auditVerify, "verify", false, "Verify the journal's hash chain instead of listing entries")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List or verify the operation journal",
	RunE:  runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if auditVerify {
		result := audit.Verify(cfg.AuditLog)
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		if !result.Valid {
			os.Exit(1)
		}
		return nil
	}

	entries, err := audit.Read(cfg.AuditLog)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("No operations recorded yet")
			return nil
		}
		return err
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-15s %-20s %s", e.Timestamp, e.Event, e.Operation, e.Command)
		if e.SnapshotID != "" {
			line += "  [" + e.SnapshotID + "]"
		}
		fmt.Println(line)
	}
	return nil
}
