package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	text  string
	err   error
	delay time.Duration
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Generate(ctx context.Context, _, _ string) (string, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &stubProvider{name: "a", text: "answer"}
	second := &stubProvider{name: "b", text: "other"}
	c := NewChainOf(0, first, second)

	text, err := c.Generate(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.Zero(t, second.calls)
}

func TestChain_FallsThroughErrorsAndBlanks(t *testing.T) {
	failing := &stubProvider{name: "a", err: errors.New("404 model not found")}
	blank := &stubProvider{name: "b", text: "   "}
	good := &stubProvider{name: "c", text: "```\nfinal\n```"}
	c := NewChainOf(0, failing, blank, good)

	text, err := c.Generate(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "final", text)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, blank.calls)
}

func TestChain_AllFail(t *testing.T) {
	upstream := errors.New("quota exceeded")
	c := NewChainOf(0,
		&stubProvider{name: "a", err: upstream},
		&stubProvider{name: "b", text: ""},
	)

	_, err := c.Generate(context.Background(), "sys", "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), "b: empty response")
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChainOf(time.Second).Generate(context.Background(), "", "p")
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}

func TestChain_PerAttemptTimeout(t *testing.T) {
	slow := &stubProvider{name: "slow", text: "late", delay: time.Second}
	fast := &stubProvider{name: "fast", text: "on time"}
	c := NewChainOf(20*time.Millisecond, slow, fast)

	text, err := c.Generate(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "on time", text)
}

func TestChain_RecoversPanics(t *testing.T) {
	c := NewChainOf(0, panicProvider{}, &stubProvider{name: "ok", text: "fine"})

	text, err := c.Generate(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "fine", text)
}

func TestChain_Name(t *testing.T) {
	c := NewChainOf(0, &stubProvider{name: "gemini/a"}, &stubProvider{name: "openai/b"})
	assert.Equal(t, "chain(gemini/a,openai/b)", c.Name())
	assert.Equal(t, 2, c.Len())
}

type panicProvider struct{}

func (panicProvider) Name() string { return "panic" }

func (panicProvider) Generate(context.Context, string, string) (string, error) {
	panic("boom")
}
