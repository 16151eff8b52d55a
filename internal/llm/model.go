// Package llm wraps the inference collaborator: an OpenAI-compatible
// chat-completions endpoint (typically a local Ollama server) exposed
// through the eino chat-model interface, plus a retrying client and
// the extraction prompts.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-extract-go/internal/logger"
)

const defaultAPIURL = "http://localhost:11434/v1/chat/completions"

// ModelConfig holds the endpoint and sampling parameters.
type ModelConfig struct {
	APIKey      string
	APIURL      string
	ModelName   string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// ChatCompletionModel is a minimal eino chat model speaking the
// OpenAI-compatible chat-completions protocol.
type ChatCompletionModel struct {
	cfg        ModelConfig
	httpClient *http.Client
}

// NewChatCompletionModel creates a chat model client. The API key may
// be empty for local endpoints that do not authenticate.
func NewChatCompletionModel(cfg ModelConfig) (*ChatCompletionModel, error) {
	if strings.TrimSpace(cfg.ModelName) == "" {
		return nil, fmt.Errorf("model name must not be empty")
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = defaultAPIURL
	}
	return &ChatCompletionModel{
		cfg:        cfg,
		httpClient: &http.Client{},
	}, nil
}

type chatCompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []*schema.Message `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
	TopP        float64           `json:"top_p,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type chatCompletionChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type chatCompletionResponse struct {
	ID      string                 `json:"id"`
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
}

// Generate implements the eino BaseChatModel interface.
func (m *ChatCompletionModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	_ = options

	reqPayload := chatCompletionRequest{
		Model:       m.cfg.ModelName,
		Messages:    messages,
		Temperature: m.cfg.Temperature,
		TopP:        m.cfg.TopP,
		MaxTokens:   m.cfg.MaxTokens,
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if m.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	}

	logger.Debug().Str("url", m.cfg.APIURL).Str("model", m.cfg.ModelName).Msg("sending chat completion request")

	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %s: %s", httpResp.Status, string(bodyBytes))
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal API response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("API returned no choices: %s", string(bodyBytes))
	}

	apiMessage := resp.Choices[0].Message
	content := ""
	if apiMessage.Content != nil {
		content = *apiMessage.Content
	}

	result := &schema.Message{
		Role:    schema.RoleType(apiMessage.Role),
		Content: content,
	}
	if result.Role == "" {
		result.Role = schema.RoleType("assistant")
	}
	return result, nil
}

// Stream implements the eino BaseChatModel interface. Streaming is not
// used by the extraction pipeline.
func (m *ChatCompletionModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming is not implemented for ChatCompletionModel")
}

var _ model.BaseChatModel = (*ChatCompletionModel)(nil)
