package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel replays a fixed sequence of results.
type scriptedModel struct {
	calls   int
	results []scriptedResult
}

type scriptedResult struct {
	content string
	err     error
}

func (m *scriptedModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	idx := m.calls
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	m.calls++
	r := m.results[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &schema.Message{Role: "assistant", Content: r.content}, nil
}

func (m *scriptedModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func fastOptions() ClientOptions {
	return ClientOptions{MaxRetries: 2, RetryWait: time.Millisecond, Timeout: time.Second}
}

func TestInferSuccess(t *testing.T) {
	m := &scriptedModel{results: []scriptedResult{{content: `{"name": "Jane"}`}}}
	c := NewClient(m, fastOptions())

	got, err := c.Infer(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Jane"}`, got)
	assert.Equal(t, 1, m.calls)
}

func TestInferRetriesTransportErrors(t *testing.T) {
	m := &scriptedModel{results: []scriptedResult{
		{err: errors.New("connection refused")},
		{err: errors.New("read: connection reset by peer")},
		{content: "ok"},
	}}
	c := NewClient(m, fastOptions())

	got, err := c.Infer(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, m.calls)
}

func TestInferDoesNotRetryApplicationErrors(t *testing.T) {
	m := &scriptedModel{results: []scriptedResult{
		{err: errors.New("API request failed with status 400 Bad Request")},
		{content: "never reached"},
	}}
	c := NewClient(m, fastOptions())

	_, err := c.Infer(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Equal(t, 1, m.calls, "a 400 is not retryable")
}

func TestInferGivesUpAfterMaxRetries(t *testing.T) {
	m := &scriptedModel{results: []scriptedResult{{err: errors.New("timeout")}}}
	c := NewClient(m, fastOptions())

	_, err := c.Infer(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Equal(t, 3, m.calls, "initial call plus two retries")
}

func TestProbeCachesResult(t *testing.T) {
	m := &scriptedModel{results: []scriptedResult{{content: "OK"}}}
	c := NewClient(m, fastOptions())

	assert.True(t, c.Probe(context.Background()))
	assert.True(t, c.Probe(context.Background()))
	assert.Equal(t, 1, m.calls, "probe runs exactly once")
}

func TestProbeFailure(t *testing.T) {
	m := &scriptedModel{results: []scriptedResult{{err: errors.New("no such host")}}}
	c := NewClient(m, fastOptions())

	assert.False(t, c.Probe(context.Background()))
}

func TestHeaderPromptTruncation(t *testing.T) {
	long := strings.Repeat("日本語のテキスト", 1000)
	_, user := HeaderPrompt(long, 3000)

	assert.Less(t, len(user), len(long), "prompt text is truncated")
	assert.True(t, utf8.ValidString(user), "the cut must not split a UTF-8 rune")
}
