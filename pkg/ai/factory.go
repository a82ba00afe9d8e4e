package ai

import (
	"fmt"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "anthropic", "gemini", "ollama", "rules" or "auto"

	AnthropicAPIKey string
	AnthropicModel  string

	GeminiAPIKey string

	// Ollama reads its endpoint through getters so runtime settings apply
	OllamaBaseURL func() string
	OllamaModel   func() string
}

// NewDecider creates a Decider based on the config.
// This is the factory function - switch provider by changing config.Provider
func NewDecider(cfg Config) (Decider, error) {
	switch cfg.Provider {
	case ProviderRules:
		return NewRulesDecider(), nil

	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewLLMDecider(NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel)), nil

	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewLLMDecider(NewGeminiService(cfg.GeminiAPIKey)), nil

	case ProviderOllama:
		return NewLLMDecider(newOllama(cfg)), nil

	default:
		// Hosted models first when keys are present, local Ollama last
		var chain []TextGenerator
		if cfg.AnthropicAPIKey != "" {
			chain = append(chain, NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel))
		}
		if cfg.GeminiAPIKey != "" {
			chain = append(chain, NewGeminiService(cfg.GeminiAPIKey))
		}
		chain = append(chain, newOllama(cfg))
		if len(chain) == 1 {
			return NewLLMDecider(chain[0]), nil
		}
		return NewLLMDecider(NewFallbackService(chain...)), nil
	}
}

func newOllama(cfg Config) *OllamaService {
	if cfg.OllamaBaseURL != nil && cfg.OllamaModel != nil {
		return NewOllamaServiceWithGetters(cfg.OllamaBaseURL, cfg.OllamaModel)
	}
	return NewOllamaService("", "")
}
