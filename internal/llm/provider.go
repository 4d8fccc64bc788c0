// Package llm turns natural language into structured admin commands and
// execution plans, and produces safety verdicts for shell commands.
// Backends are interchangeable behind the Provider interface and selected
// by a factory keyed on a provider-type tag.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnparseable is returned when a model reply cannot be decoded into the
// expected JSON shape. It is a normal, reportable outcome since model output is
// untrusted input, not a programming error.
var ErrUnparseable = errors.New("failed to parse LLM response")

// Validation is a safety verdict for a single shell command.
type Validation struct {
	Safe            bool     `json:"safe"`
	Confidence      float64  `json:"confidence"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`
}

// Provider is the capability contract every LLM backend implements.
type Provider interface {
	// GenerateResponse returns the model's text reply to a prompt.
	// context carries optional key/value hints (platform, cwd, ...).
	GenerateResponse(ctx context.Context, prompt string, reqContext map[string]any) (string, error)

	// ValidateCommand assesses a shell command before execution.
	ValidateCommand(ctx context.Context, command string, reqContext map[string]any) (*Validation, error)
}

// Options parameterizes provider construction.
type Options struct {
	Model   string
	APIKey  string
	BaseURL string
}

// NewProvider builds a backend for the given provider-type tag:
// "openai" (remote API, key required), "ollama" (local model server), or
// "static" (fixed replies, the zero-config default and test double).
func NewProvider(providerType string, opts Options) (Provider, error) {
	switch providerType {
	case "openai":
		return newOpenAIProvider(opts)
	case "ollama", "local":
		return newOllamaProvider(opts)
	case "static", "":
		return NewStaticProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", providerType)
	}
}
