package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3"
)

// OllamaProvider drives a local Ollama server over its HTTP API.
type OllamaProvider struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

func newOllamaProvider(opts Options) (*OllamaProvider, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	model := opts.Model
	if model == "" {
		model = defaultOllamaModel
	}

	return &OllamaProvider{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
	}, nil
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// GenerateResponse implements Provider via POST /api/generate.
func (p *OllamaProvider) GenerateResponse(ctx context.Context, prompt string, reqContext map[string]any) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  p.model,
		Prompt: withContext(prompt, reqContext),
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return out.Response, nil
}

// ValidateCommand implements Provider.
func (p *OllamaProvider) ValidateCommand(ctx context.Context, command string, reqContext map[string]any) (*Validation, error) {
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
