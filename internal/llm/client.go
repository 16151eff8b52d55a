package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-extract-go/internal/logger"
)

// ClientOptions tunes the retry and timeout behavior around the model.
type ClientOptions struct {
	MaxRetries int
	RetryWait  time.Duration
	Timeout    time.Duration
}

// DefaultClientOptions returns the standard retry policy.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		MaxRetries: 2,
		RetryWait:  2 * time.Second,
		Timeout:    60 * time.Second,
	}
}

// Client wraps a chat model with bounded retries, per-call timeouts,
// and a cached availability probe.
type Client struct {
	model model.BaseChatModel
	opts  ClientOptions

	probeOnce   sync.Once
	probeResult bool
}

// NewClient creates a client. Zero option values fall back to
// defaults.
func NewClient(m model.BaseChatModel, opts ClientOptions) *Client {
	defaults := DefaultClientOptions()
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaults.MaxRetries
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = defaults.RetryWait
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	return &Client{model: m, opts: opts}
}

// Infer sends a system/user prompt pair and returns the raw response
// text. Transport-flavored errors are retried with exponential backoff
// up to MaxRetries; each attempt runs under its own timeout.
func (c *Client) Infer(ctx context.Context, systemContent, userContent string) (string, error) {
	messages := []*schema.Message{
		{Role: "system", Content: systemContent},
		{Role: "user", Content: userContent},
	}

	retryDelay := c.opts.RetryWait
	var response *schema.Message
	var err error

	for retry := 0; retry <= c.opts.MaxRetries; retry++ {
		if retry > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("context canceled: %w", ctx.Err())
			case <-time.After(retryDelay):
				retryDelay *= 2
				logger.Debug().Int("attempt", retry).Msg("retrying inference call")
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		response, err = c.model.Generate(callCtx, messages)
		cancel()

		if err == nil {
			break
		}
		if !isRetryableError(err) || retry >= c.opts.MaxRetries {
			return "", fmt.Errorf("inference call failed: %w", err)
		}
	}

	return response.Content, nil
}

// Probe reports whether the inference backend answers a trivial
// round trip. The result is computed once and cached for the client's
// lifetime.
func (c *Client) Probe(ctx context.Context) bool {
	c.probeOnce.Do(func() {
		_, err := c.Infer(ctx, "You are a health check. Reply with the single word OK.", "ping")
		c.probeResult = err == nil
		if err != nil {
			logger.Warn().Err(err).Msg("inference backend probe failed, running in pattern-only mode")
		} else {
			logger.Info().Msg("inference backend available")
		}
	})
	return c.probeResult
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host")
}
