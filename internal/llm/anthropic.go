package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicConfig configures a Claude messages provider.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AnthropicProvider generates text with the Anthropic messages API.
type AnthropicProvider struct {
	client   *anthropic.Client
	model    string
	settings Settings
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg AnthropicConfig, s Settings) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("anthropic: model is required")
	}

	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:   anthropic.NewClient(cfg.APIKey, opts...),
		model:    cfg.Model,
		settings: s.withDefaults(),
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic/" + p.model }

// Generate sends the prompt as a single user message.
func (p *AnthropicProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	temp := float32(p.settings.Temperature)
	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(p.model),
		System:      system,
		Messages:    []anthropic.Message{anthropic.NewUserTextMessage(prompt)},
		MaxTokens:   p.settings.MaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var b strings.Builder
	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText && c.Text != nil {
			b.WriteString(*c.Text)
		}
	}
	return b.String(), nil
}
