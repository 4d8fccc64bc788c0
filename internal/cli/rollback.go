package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rollbackCmd)
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <snapshot_id>",
	Short: "Restore config files from a snapshot",
	Long:  "Copies the files in the snapshot back over their original locations. On Windows, a registry export in the snapshot is re-imported first.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRollback,
}

func runRollback(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	if err := s.engine.Rollback(context.Background(), args[0]); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	fmt.Println("Rollback completed")
	return nil
}
