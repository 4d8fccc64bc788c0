package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

const systemPrompt = "You are a cautious system administration assistant. " +
	"Answer with exactly the JSON the user asks for, no markdown, no commentary."

// OpenAIProvider calls the OpenAI chat completion API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAIProvider(opts Options) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires an API key")
	}
	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// GenerateResponse implements Provider.
func (p *OpenAIProvider) GenerateResponse(ctx context.Context, prompt string, reqContext map[string]any) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: withContext(prompt, reqContext)},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ValidateCommand implements Provider by asking the model for a verdict in
// the Validation JSON shape.
func (p *OpenAIProvider) ValidateCommand(ctx context.Context, command string, reqContext map[string]any) (*Validation, error) {
	reply, err := p.GenerateResponse(ctx, validationPrompt(command), reqContext)
	if err != nil {
		return nil, err
	}

	var v Validation
	if err := json.Unmarshal(stripFences(reply), &v); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnparseable, firstLine(reply))
	}
	return &v, nil
}
