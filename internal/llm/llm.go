// Package llm wraps the summarization providers behind a single interface.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/TobiSchelling/researchlens/internal/config"
)

// Provider generates text from a system instruction and a user prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Settings are generation parameters shared by every provider. A zero
// Temperature is sent as-is for deterministic output.
type Settings struct {
	MaxTokens   int
	Temperature float64
}

func (s Settings) withDefaults() Settings {
	if s.MaxTokens <= 0 {
		s.MaxTokens = 2048
	}
	if s.Temperature < 0 {
		s.Temperature = 0
	}
	return s
}

// NewProvider creates the provider described by p. The API key is read
// from the environment variable p.APIKeyEnv.
func NewProvider(ctx context.Context, p config.Provider, s Settings) (Provider, error) {
	s = s.withDefaults()
	key := os.Getenv(p.APIKeyEnv)

	switch p.Type {
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, GeminiConfig{APIKey: key, Model: p.Model, BaseURL: p.BaseURL}, s)
	case config.ProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{APIKey: key, Model: p.Model, BaseURL: p.BaseURL}, s)
	case config.ProviderAnthropic:
		return NewAnthropicProvider(AnthropicConfig{APIKey: key, Model: p.Model, BaseURL: p.BaseURL}, s)
	case config.ProviderOllama:
		return NewOllamaProvider(p.Model, p.BaseURL, s), nil
	}
	return nil, fmt.Errorf("unknown provider type %q", p.Type)
}

// NewChain builds the ordered provider chain from configuration.
func NewChain(ctx context.Context, cfg config.Summarization) (*Chain, error) {
	s := Settings{MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}

	providers := make([]Provider, 0, len(cfg.Providers))
	for i, pc := range cfg.Providers {
		p, err := NewProvider(ctx, pc, s)
		if err != nil {
			return nil, fmt.Errorf("provider %d (%s): %w", i, pc.Type, err)
		}
		providers = append(providers, p)
	}
	return NewChainOf(cfg.Timeout, providers...), nil
}
