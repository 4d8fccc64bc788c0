package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsnap/opsnap/internal/assistant"
	"github.com/opsnap/opsnap/internal/config"
)

var (
	execOperation string
	execAdmin     bool
	execYes       bool
	execTimeout   time.Duration
)

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVarP(&execOperation, "operation", "o", "manual_command", "Operation name used in the snapshot id")
	execCmd.Flags().BoolVar(&execAdmin, "admin", false, "Request administrative privileges (Windows elevation)")
	execCmd.Flags().BoolVarP(&execYes, "yes", "y", false, "Skip confirmation prompts (also declines rollback)")
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 0, "Override the command timeout (e.g. 30s)")
}

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- <command> [args...]",
	Short: "Execute a command behind a config snapshot",
	Long:  "Takes a snapshot of the protected config files, asks for confirmation, runs the command, and on failure offers to roll back to the snapshot.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	if execTimeout > 0 {
		s.cfg.CommandTimeout = config.Duration(execTimeout)
	}

	confirm := terminalConfirmer(os.Stdin, os.Stdout)
	if execYes {
		// --yes approves execution but never an automatic rollback.
		first := true
		confirm = func(string) bool {
			if first {
				first = false
				return true
			}
			return false
		}
	}

	a, journal, err := s.newAssistant(confirm)
	if err != nil {
		return err
	}
	defer journal.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	command := strings.Join(args, " ")
	outcome, err := a.SafeExecute(ctx, command, execOperation, execAdmin)
	if err != nil {
		return err
	}

	return printOutcome(outcome)
}

// printOutcome renders an outcome and sets the exit code.
func printOutcome(outcome *assistant.Outcome) error {
	if outcome.Cancelled {
		fmt.Println("Operation cancelled")
		return nil
	}

	res := outcome.Result
	if res.Success {
		fmt.Println("Operation completed successfully")
		if res.Stdout != "" {
			fmt.Print(res.Stdout)
		}
		return nil
	}

	fmt.Fprintln(os.Stderr, "Operation failed")
	if res.TimedOut {
		fmt.Fprintln(os.Stderr, res.Stderr)
	} else if res.Stderr != "" {
		fmt.Fprint(os.Stderr, res.Stderr)
	}
	if outcome.RolledBack {
		fmt.Println("Successfully rolled back changes")
	} else {
		fmt.Printf("Snapshot retained: %s (opsnap rollback %s)\n", outcome.SnapshotID, outcome.SnapshotID)
	}

	if res.ExitCode > 0 {
		os.Exit(res.ExitCode)
	}
	os.Exit(1)
	return nil
}
