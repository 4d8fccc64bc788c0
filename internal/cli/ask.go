package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opsnap/opsnap/internal/llm"
)

var (
	askProvider string
	askModel    string
	askDryRun   bool
)

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askProvider, "provider", "", "LLM provider: openai, ollama, static (default: from config)")
	askCmd.Flags().StringVar(&askModel, "model", "", "Model name (default: provider-specific)")
	askCmd.Flags().BoolVar(&askDryRun, "dry-run", false, "Parse, validate, and plan without executing anything")
}

var askCmd = &cobra.Command{
	Use:   "ask <request...>",
	Short: "Turn a natural-language request into a snapshot-gated execution plan",
	Long:  "Sends the request to the configured LLM provider, shows the parsed command, its safety verdict, and the execution plan, then runs each step through the snapshot/confirm/rollback loop.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	provCfg := s.cfg.Provider
	if askProvider != "" {
		provCfg.Type = askProvider
	}
	if askModel != "" {
		provCfg.Model = askModel
	}

	provider, err := llm.NewProvider(provCfg.Type, llm.Options{
		Model:   provCfg.Model,
		APIKey:  provCfg.APIKey,
		BaseURL: provCfg.BaseURL,
	})
	if err != nil {
		return err
	}
	facade := llm.NewInterface(provider, s.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	request := strings.Join(args, " ")

	parsed, err := facade.ParseCommand(ctx, request)
	if err != nil {
		if errors.Is(err, llm.ErrUnparseable) {
			printJSON(map[string]string{"error": "Failed to parse command"})
			os.Exit(1)
		}
		return err
	}

	fmt.Println("Parsed command:")
	printJSON(parsed)

	steps, err := facade.GeneratePlan(ctx, parsed)
	if err != nil {
		if errors.Is(err, llm.ErrUnparseable) {
			printJSON(map[string]string{"error": "Failed to parse execution plan"})
			os.Exit(1)
		}
		return err
	}
	if len(steps) == 0 {
		fmt.Println("The provider returned an empty plan; nothing to do.")
		return nil
	}

	fmt.Printf("\nExecution plan (%d steps):\n", len(steps))
	for _, step := range steps {
		fmt.Printf("  %d. %s\n     $ %s  (est. %s, reversible: %v)\n",
			step.StepNumber, step.Description, step.Command, step.EstimatedTime, step.Reversible)
	}

	for _, step := range steps {
		verdict, err := facade.ValidateSafety(ctx, step.Command)
		if err != nil {
			return fmt.Errorf("validate step %d: %w", step.StepNumber, err)
		}
		if !verdict.Safe {
			fmt.Fprintf(os.Stderr, "\nStep %d flagged unsafe (confidence %.2f):\n", step.StepNumber, verdict.Confidence)
			for _, risk := range verdict.Risks {
				fmt.Fprintf(os.Stderr, "  - %s\n", risk)
			}
			for _, rec := range verdict.Recommendations {
				fmt.Fprintf(os.Stderr, "  recommendation: %s\n", rec)
			}
			return fmt.Errorf("plan aborted at step %d", step.StepNumber)
		}
	}

	if askDryRun {
		return nil
	}

	a, journal, err := s.newAssistant(terminalConfirmer(os.Stdin, os.Stdout))
	if err != nil {
		return err
	}
	defer journal.Close()

	operation := parsed.Action
	if parsed.Target != "" {
		operation = parsed.Action + "_" + parsed.Target
	}

	for _, step := range steps {
		fmt.Printf("\nStep %d: %s\n", step.StepNumber, step.Description)
		outcome, err := a.SafeExecute(ctx, step.Command, operation, parsed.AdminRequired)
		if err != nil {
			return err
		}
		if outcome.Cancelled {
			fmt.Println("Plan cancelled")
			return nil
		}
		if !outcome.Result.Success {
			fmt.Fprintf(os.Stderr, "Step %d failed, stopping plan\n", step.StepNumber)
			if outcome.Result.Stderr != "" {
				fmt.Fprint(os.Stderr, outcome.Result.Stderr)
			}
			os.Exit(1)
		}
		if outcome.Result.Stdout != "" {
			fmt.Print(outcome.Result.Stdout)
		}
	}

	fmt.Println("\nPlan completed")
	return nil
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
