package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrAllProvidersFailed is returned when no provider produced text.
var ErrAllProvidersFailed = errors.New("all summarization providers failed")

// Chain tries providers in order until one returns non-blank text.
type Chain struct {
	providers []Provider
	timeout   time.Duration
}

// NewChainOf creates a chain over providers. timeout bounds each attempt;
// zero means no per-attempt limit.
func NewChainOf(timeout time.Duration, providers ...Provider) *Chain {
	return &Chain{providers: providers, timeout: timeout}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Len reports the number of providers.
func (c *Chain) Len() int { return len(c.providers) }

// Generate returns the first non-blank response. Errors from every attempt
// are joined under ErrAllProvidersFailed.
func (c *Chain) Generate(ctx context.Context, system, prompt string) (string, error) {
	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		text, err := c.attempt(ctx, p, system, prompt)
		if err == nil {
			text = cleanResponse(text)
			if text != "" {
				return text, nil
			}
			err = errors.New("empty response")
		}
		slog.Warn("summarization provider failed", "provider", p.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return "", errors.Join(append([]error{ErrAllProvidersFailed}, errs...)...)
}

func (c *Chain) attempt(ctx context.Context, p Provider, system, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return p.Generate(ctx, system, prompt)
}
