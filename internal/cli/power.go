package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opsnap/opsnap/internal/registry"
)

func init() {
	rootCmd.AddCommand(powerCmd)
}

var powerCmd = &cobra.Command{
	Use:   "power <scheme>",
	Short: "Activate a Windows power scheme via powercfg",
	Long:  "Known schemes: " + strings.Join(registry.PowerSchemes(), ", ") + ". Windows only.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPower,
}

func runPower(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	if err := s.reg.SetPowerScheme(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Power scheme set to %s\n", args[0])
	return nil
}
