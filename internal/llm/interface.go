package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Interface is the orchestration layer over a Provider: it owns the
// prompts and the JSON-decode boundary. Malformed model output comes back
// as ErrUnparseable, never a panic or a crash.
type Interface struct {
	provider Provider
	logger   *slog.Logger
}

// NewInterface wraps a provider.
func NewInterface(provider Provider, logger *slog.Logger) *Interface {
	return &Interface{provider: provider, logger: logger}
}

const parsePromptTemplate = `Parse the following user request into a structured command.

User request: %q

Return a single JSON object with these keys:
- action: the main action to perform
- target: what to modify or configure
- parameters: object with any specific parameters
- safety_level: risk assessment, one of "low", "medium", "high"
- requires_backup: boolean, whether a snapshot is needed first
- admin_required: boolean, whether elevated privileges are needed

Example:
{"action":"install","target":"development_environment","parameters":{"languages":["python","nodejs"]},"safety_level":"low","requires_backup":false,"admin_required":true}`

const planPromptTemplate = `Create a step-by-step execution plan for this command:
%s

Return a JSON array of steps, each with these keys:
- step_number: sequential step number starting at 1
- description: human-readable description
- command: the exact shell command to execute
- estimated_time: estimated duration, e.g. "30s"
- reversible: boolean, whether the step can be undone
- backup_required: boolean, whether a snapshot is needed before this step`

// ParseCommand turns free text into a structured Command. A reply that
// does not decode yields ErrUnparseable.
func (i *Interface) ParseCommand(ctx context.Context, userInput string) (*Command, error) {
	reply, err := i.provider.GenerateResponse(ctx, fmt.Sprintf(parsePromptTemplate, userInput), nil)
	if err != nil {
		return nil, fmt.Errorf("generate command: %w", err)
	}

	var cmd Command
	if err := json.Unmarshal(stripFences(reply), &cmd); err != nil {
		i.logger.Error("failed to parse LLM response", "response", firstLine(reply))
		return nil, fmt.Errorf("%w: %s", ErrUnparseable, firstLine(reply))
	}

	i.logger.Info("parsed command", "action", cmd.Action, "target", cmd.Target, "safety_level", cmd.SafetyLevel)
	return &cmd, nil
}

// GeneratePlan asks the provider for an ordered execution plan for a
// parsed command. Steps come back sorted by step number regardless of the
// order the model emitted them.
func (i *Interface) GeneratePlan(ctx context.Context, cmd *Command) ([]PlanStep, error) {
	encoded, err := json.MarshalIndent(cmd, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}

	reply, err := i.provider.GenerateResponse(ctx, fmt.Sprintf(planPromptTemplate, encoded), nil)
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}

	var steps []PlanStep
	if err := json.Unmarshal(stripFences(reply), &steps); err != nil {
		i.logger.Error("failed to parse execution plan", "response", firstLine(reply))
		return nil, fmt.Errorf("%w: %s", ErrUnparseable, firstLine(reply))
	}

	sort.Slice(steps, func(a, b int) bool {
		return steps[a].StepNumber < steps[b].StepNumber
	})

	i.logger.Info("generated execution plan", "steps", len(steps))
	return steps, nil
}

// ValidateSafety delegates the verdict to the provider.
func (i *Interface) ValidateSafety(ctx context.Context, command string) (*Validation, error) {
	return i.provider.ValidateCommand(ctx, command, nil)
}

// validationPrompt is shared by providers that obtain verdicts by asking
// the model for JSON.
func validationPrompt(command string) string {
	return fmt.Sprintf(`Assess the safety of executing this shell command: %q

Return a single JSON object with these keys:
- safe: boolean
- confidence: number between 0 and 1
- risks: array of strings describing concrete risks
- recommendations: array of strings with safer alternatives`, command)
}

// withContext appends key/value hints to a prompt in deterministic order.
func withContext(prompt string, reqContext map[string]any) string {
	if len(reqContext) == 0 {
		return prompt
	}
	keys := make([]string, 0, len(reqContext))
	for k := range reqContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nContext:")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n- %s: %v", k, reqContext[k])
	}
	return b.String()
}

// stripFences removes a surrounding markdown code fence, which models emit
// even when told not to.
func stripFences(reply string) []byte {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return []byte(strings.TrimSpace(s))
}

// firstLine truncates a reply for log and error messages.
func firstLine(reply string) string {
	line := strings.TrimSpace(reply)
	if idx := strings.Index(line, "\n"); idx >= 0 {
		line = line[:idx]
	}
	if len(line) > 120 {
		line = line[:120] + "..."
	}
	return line
}
