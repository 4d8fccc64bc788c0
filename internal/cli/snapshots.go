package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var snapshotsJSON bool

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	snapshotsCmd.Flags().BoolVar(&snapshotsJSON, "json", false, "Print raw metadata as JSON")
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List available snapshots, newest first",
	RunE:  runSnapshots,
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	list := s.store.List()

	if snapshotsJSON {
		out, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Available snapshots (%d):\n", len(list))
	for _, meta := range list {
		fmt.Printf("  %s - %s (%s)\n", meta.SnapshotID, meta.Operation, meta.Timestamp)
	}
	return nil
}
