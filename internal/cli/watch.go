package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opsnap/opsnap/internal/watch"
)

var watchSnapshot bool

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchSnapshot, "snapshot", false, "Take a snapshot when a protected file changes")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the protected config files and report changes",
	Long:  "Observes every file in the protected set and logs each modification. With --snapshot, each change also records a 'filewatch' snapshot so the pre-change content stays recoverable.",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	handler := func(c watch.Change) {
		s.logger.Info("protected file changed", "file", c.Path, "op", c.Op)
		if !watchSnapshot {
			return
		}
		id, err := s.store.Create(ctx, "filewatch")
		if err != nil {
			s.logger.Error("snapshot after change failed", "error", err)
			return
		}
		s.logger.Info("snapshot taken", "snapshot_id", id)
	}

	fmt.Printf("Watching %d protected files (Ctrl-C to stop)\n", len(s.cfg.ProtectedFiles))
	w := watch.New(s.cfg.ProtectedFiles, handler, s.logger)

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
