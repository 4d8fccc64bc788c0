package llm

import "context"

// StaticProvider returns fixed replies and an always-permissive verdict.
// It is the zero-config default so the tool works without any model
// wired up, and the double every orchestration test runs against.
type StaticProvider struct {
	// Response overrides the canned reply when non-empty.
	Response string
	// ValidationResult overrides the canned verdict when non-nil.
	ValidationResult *Validation
}

// NewStaticProvider returns a provider with the canned defaults.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

// GenerateResponse implements Provider.
func (p *StaticProvider) GenerateResponse(ctx context.Context, prompt string, reqContext map[string]any) (string, error) {
	if p.Response != "" {
		return p.Response, nil
	}
	return "static provider: no model configured", nil
}

// ValidateCommand implements Provider. The canned verdict is permissive:
// without a model there is no analysis to say otherwise.
func (p *StaticProvider) ValidateCommand(ctx context.Context, command string, reqContext map[string]any) (*Validation, error) {
	if p.ValidationResult != nil {
		return p.ValidationResult, nil
	}
	return &Validation{
		Safe:            true,
		Confidence:      0.0,
		Risks:           []string{},
		Recommendations: []string{"no model configured: verdict is not an analysis"},
	}, nil
}
