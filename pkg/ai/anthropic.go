package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// AnthropicService generates text through the Anthropic Messages API.
type AnthropicService struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	client    *http.Client
}

func NewAnthropicService(apiKey, model string) *AnthropicService {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &AnthropicService{
		apiKey:    apiKey,
		model:     model,
		maxTokens: 1024,
		baseURL:   anthropicBaseURL,
	}
}

// WithBaseURL points the service at another endpoint, e.g. a test server.
func (a *AnthropicService) WithBaseURL(baseURL string) *AnthropicService {
	a.baseURL = strings.TrimRight(baseURL, "/")
	return a
}

func (a *AnthropicService) Name() string {
	return string(ProviderAnthropic)
}

// Generate implements TextGenerator
func (a *AnthropicService) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":      a.model,
		"max_tokens": a.maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	respBody, err := postJSON(ctx, a.client, a.Name(), a.baseURL+"/v1/messages", headers, payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	for _, block := range result.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text returned")
}
